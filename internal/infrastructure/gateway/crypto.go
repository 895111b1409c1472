package gateway

import (
	"context"
	"sync"
	"time"

	"creditflow/internal/domain/flow"
)

// Conversion rates of the simulated exchange. The buy/sell round trip is the
// value-capture mechanism of the flow, not a no-op: the spread between the
// rates is where a real exchange would make or lose money.
const (
	fundsToCryptoRate = 0.0001
	cryptoToFundsRate = 10_000
)

// SimulatedCryptoGateway stands in for the crypto exchange.
type SimulatedCryptoGateway struct {
	mu         sync.Mutex
	minLatency time.Duration
	maxLatency time.Duration
	buyErr     error
	sellErr    error
}

func NewSimulatedCryptoGateway() *SimulatedCryptoGateway {
	return &SimulatedCryptoGateway{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
	}
}

// SetLatency overrides the simulated exchange delay bounds.
func (g *SimulatedCryptoGateway) SetLatency(min, max time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.minLatency, g.maxLatency = min, max
}

// FailBuys makes Buy return err until reset with nil.
func (g *SimulatedCryptoGateway) FailBuys(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buyErr = err
}

// FailSells makes Sell return err until reset with nil.
func (g *SimulatedCryptoGateway) FailSells(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sellErr = err
}

func (g *SimulatedCryptoGateway) Buy(ctx context.Context, asset string, fundsAmount float64) (*flow.CryptoTrade, error) {
	g.mu.Lock()
	err := g.buyErr
	min, max := g.minLatency, g.maxLatency
	g.mu.Unlock()

	if latencyErr := simulateLatency(ctx, min, max); latencyErr != nil {
		return nil, latencyErr
	}
	if err != nil {
		return nil, err
	}
	return &flow.CryptoTrade{
		Asset:       asset,
		FundsAmount: fundsAmount,
		AssetAmount: fundsAmount * fundsToCryptoRate,
		Status:      statusSuccess,
	}, nil
}

func (g *SimulatedCryptoGateway) Sell(ctx context.Context, asset string, assetAmount float64) (*flow.CryptoTrade, error) {
	g.mu.Lock()
	err := g.sellErr
	min, max := g.minLatency, g.maxLatency
	g.mu.Unlock()

	if latencyErr := simulateLatency(ctx, min, max); latencyErr != nil {
		return nil, latencyErr
	}
	if err != nil {
		return nil, err
	}
	return &flow.CryptoTrade{
		Asset:       asset,
		FundsAmount: assetAmount * cryptoToFundsRate,
		AssetAmount: assetAmount,
		Status:      statusSuccess,
	}, nil
}
