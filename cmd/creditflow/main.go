package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"creditflow/internal/application/creditflow"
	"creditflow/internal/common/configs"
	"creditflow/internal/common/logger"
	"creditflow/internal/common/metrics"
	"creditflow/internal/infrastructure/eventbus"
	"creditflow/internal/infrastructure/gateway"
	"creditflow/internal/infrastructure/review"
	"creditflow/internal/infrastructure/store"

	"go.uber.org/zap/zapcore"
)

func main() {
	l := logger.NewZapLogger(zapcore.DebugLevel)
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence: PostgreSQL when DATABASE_URL is set, otherwise the
	// simulated in-memory backend.
	var transactions store.TransactionStore = store.NewMemoryStore()
	if os.Getenv(configs.DatabaseURLEnvKey) != "" {
		pg, err := store.NewPostgresStore(configs.GetDatabaseURL())
		if err != nil {
			l.Error("Failed to initialize postgres store", logger.Field{Key: "error", Value: err})
			os.Exit(1)
		}
		defer pg.Close()
		transactions = pg
	}

	// Transition audit stream: Kafka when KAFKA_BROKERS is set.
	var publisher eventbus.Publisher = eventbus.NewMemoryPublisher()
	if os.Getenv(configs.KafkaBrokersEnvKey) != "" {
		publisher = eventbus.NewKafkaPublisher(configs.GetKafkaBrokers(), configs.TopicTransitions)
	}
	defer publisher.Close()

	payments := gateway.NewSimulatedPaymentGateway()
	crypto := gateway.NewSimulatedCryptoGateway()
	injectFailure(l, payments, crypto)

	// Decorate the payment gateway: retries inside, idempotency outside, so
	// a retried call lands on the same idempotency record.
	records := gateway.NewRecordStore()
	var paymentGateway gateway.PaymentGateway = gateway.NewPaymentGatewayWithRetries(payments)
	paymentGateway = gateway.NewPaymentGatewayWithIdempotency(paymentGateway, records)

	actions := creditflow.NewActionsWithLogging(
		creditflow.NewFlowActions(transactions, paymentGateway, crypto),
		l,
	)

	collector := metrics.NewInMemoryCollector()
	reviews := review.NewQueue()
	reviews.Subscribe(func(entry review.Entry) {
		l.Warn("Flow waiting for manual review",
			logger.Field{Key: "flow_id", Value: entry.FlowID},
			logger.Field{Key: "reason", Value: entry.Reason},
		)
	})
	if os.Getenv(configs.DatabaseURLEnvKey) != "" {
		reviewLog, err := review.NewPostgresLog(configs.GetDatabaseURL())
		if err != nil {
			l.Error("Failed to initialize review log", logger.Field{Key: "error", Value: err})
			os.Exit(1)
		}
		defer reviewLog.Close()
		reviews.Subscribe(func(entry review.Entry) {
			if err := reviewLog.Persist(ctx, entry); err != nil {
				l.Error("Failed to persist review entry",
					logger.Field{Key: "flow_id", Value: entry.FlowID},
					logger.Field{Key: "error", Value: err},
				)
			}
		})
	}

	flowRunner := creditflow.NewCreditFlow(actions, l, publisher, collector, reviews)

	l.Info("Starting credit flow", logger.Field{Key: "service", Value: configs.ServiceNameCreditFlow})

	final, err := flowRunner.Run(ctx, "some-user-id", 100)
	if err != nil {
		l.Warn("Credit flow did not succeed",
			logger.Field{Key: "terminal_state", Value: final.CurrentState},
			logger.Field{Key: "error", Value: err},
		)
	}

	l.Info("Credit flow finished",
		logger.Field{Key: "terminal_state", Value: final.CurrentState},
		logger.Field{Key: "state_history", Value: final.StateHistory},
		logger.Field{Key: "transaction_id", Value: final.TransactionID},
		logger.Field{Key: "succeeded", Value: collector.GetCounter(metrics.CounterFlowsSucceeded)},
		logger.Field{Key: "rolled_back", Value: collector.GetCounter(metrics.CounterFlowsRolledBack)},
		logger.Field{Key: "pending_review", Value: collector.GetCounter(metrics.CounterFlowsPendingReview)},
	)
}

// injectFailure wires the FAIL_STEP demo knob into the simulated gateways so
// the rollback paths can be observed locally.
func injectFailure(l logger.Logger, payments *gateway.SimulatedPaymentGateway, crypto *gateway.SimulatedCryptoGateway) {
	step := configs.GetFailStep()
	if step == "" {
		return
	}
	failure := &gateway.Error{Code: "card_declined", Message: "injected demo failure"}
	switch step {
	case "payment":
		payments.FailCharges(failure)
	case "crypto":
		crypto.FailSells(failure)
	case "withdraw":
		payments.FailPayouts(failure)
	case "review":
		// Fail the payout and the refund: the rollback chain breaks and the
		// flow parks in failedPendingReview.
		payments.FailPayouts(failure)
		payments.FailRefunds(failure)
	default:
		l.Warn("Unknown FAIL_STEP value, ignoring", logger.Field{Key: "value", Value: step})
		return
	}
	l.Info("Injecting demo failure", logger.Field{Key: "step", Value: step})
}
