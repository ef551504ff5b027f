package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockLogger implements Logger interface for testing.
type mockLogger struct {
	infoCalled  bool
	debugCalled bool
	warnCalled  bool
	errorCalled bool
	lastMsg     string
	lastFields  map[string]any
	lastErr     error
}

func (m *mockLogger) Info(_ context.Context, msg string, fields map[string]any) {
	m.infoCalled = true
	m.lastMsg = msg
	m.lastFields = fields
}

func (m *mockLogger) Debug(_ context.Context, msg string, fields map[string]any) {
	m.debugCalled = true
	m.lastMsg = msg
	m.lastFields = fields
}

func (m *mockLogger) Warn(_ context.Context, msg string, fields map[string]any) {
	m.warnCalled = true
	m.lastMsg = msg
	m.lastFields = fields
}

func (m *mockLogger) Error(_ context.Context, msg string, err error, fields map[string]any) {
	m.errorCalled = true
	m.lastMsg = msg
	m.lastErr = err
	m.lastFields = fields
}

func TestZapAdapter_Passthrough(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock)
	ctx := context.Background()

	adapter.Info(ctx, "info message", map[string]any{"key": "value"})
	assert.True(t, mock.infoCalled)
	assert.Equal(t, "info message", mock.lastMsg)
	assert.Equal(t, map[string]any{"key": "value"}, mock.lastFields)

	adapter.Debug(ctx, "debug message", nil)
	assert.True(t, mock.debugCalled)

	adapter.Warn(ctx, "warn message", nil)
	assert.True(t, mock.warnCalled)

	wantErr := errors.New("boom")
	adapter.Error(ctx, "error message", wantErr, nil)
	assert.True(t, mock.errorCalled)
	assert.Equal(t, wantErr, mock.lastErr)
}

func TestZapAdapter_WithBaseFields(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock).WithBaseFields(map[string]any{
		"library": "scroll",
		"version": "1.4.0.42",
	})

	adapter.Info(context.Background(), "step done", map[string]any{"step": "package"})

	assert.Equal(t, map[string]any{
		"library": "scroll",
		"version": "1.4.0.42",
		"step":    "package",
	}, mock.lastFields)
}

func TestZapAdapter_WithBaseFields_CallFieldsWin(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock).WithBaseFields(map[string]any{"version": "1.4.0.42"})

	adapter.Warn(context.Background(), "override", map[string]any{"version": "1.4.0.43"})

	assert.Equal(t, "1.4.0.43", mock.lastFields["version"])
}
