package creditflow

import (
	"context"
	"errors"
	"testing"

	"creditflow/internal/common/logger"
	"creditflow/internal/domain/flow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionsWithLogging_PassesResultsThrough(t *testing.T) {
	actions, mockStore, _, _ := newTestActions()
	ml := logger.NewMockLogger()
	decorated := NewActionsWithLogging(actions, ml)
	ctx := context.Background()

	profile := &flow.UserProfile{UserID: "user-1"}
	mockStore.On("GetUserInfo", ctx, "user-1").Return(profile, nil)
	mockStore.On("RegisterTransaction", ctx, "user-1", 100.0).
		Return(&flow.TransactionRecord{ID: "tx-1"}, nil)

	result, err := decorated.Start(ctx, flow.Context{UserID: "user-1", Amount: 100})

	require.NoError(t, err)
	assert.Equal(t, profile, result.UserInfo)
	assert.Equal(t, "tx-1", result.TransactionID)

	entries := ml.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "DEBUG", entries[0].Level)
	assert.Equal(t, "Completed start credit flow", entries[0].Msg)
}

func TestActionsWithLogging_LogsFailuresAtErrorLevel(t *testing.T) {
	actions, mockStore, _, _ := newTestActions()
	ml := logger.NewMockLogger()
	decorated := NewActionsWithLogging(actions, ml)
	ctx := context.Background()

	stepErr := errors.New("db down")
	mockStore.On("GetUserInfo", ctx, "user-1").Return(nil, stepErr)

	fc := flow.Context{FlowID: "flow-1", UserID: "user-1", Amount: 100, CurrentState: flow.StateStarting}
	_, err := decorated.Start(ctx, fc)

	assert.ErrorIs(t, err, stepErr)
	require.Equal(t, 1, ml.Count("ERROR"))

	entry := ml.Entries()[0]
	assert.Equal(t, "Failed to start credit flow", entry.Msg)
	fields := map[string]interface{}{}
	for _, f := range entry.Fields {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, "flow-1", fields["flow_id"])
	assert.Equal(t, stepErr, fields["error"])
}
