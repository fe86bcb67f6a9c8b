package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testCommand struct {
	Value   string
	invalid bool
}

func (c testCommand) Validate() error {
	if c.invalid {
		return errors.New("value is required")
	}
	return nil
}

type otherCommand struct{}

func (c otherCommand) Validate() error { return nil }

func TestCommandBus_SendDispatchesToRegisteredHandler(t *testing.T) {
	ctx := context.Background()
	bus := NewCommandBus()

	var received Command
	handler := CommandHandlerFunc(func(_ context.Context, cmd Command) error {
		received = cmd
		return nil
	})
	require.NoError(t, bus.Register(testCommand{}, handler))

	err := bus.Send(ctx, testCommand{Value: "hello"})

	require.NoError(t, err)
	assert.Equal(t, testCommand{Value: "hello"}, received)
}

func TestCommandBus_SendValidatesFirst(t *testing.T) {
	ctx := context.Background()
	bus := NewCommandBus()

	called := false
	handler := CommandHandlerFunc(func(_ context.Context, _ Command) error {
		called = true
		return nil
	})
	require.NoError(t, bus.Register(testCommand{}, handler))

	err := bus.Send(ctx, testCommand{invalid: true})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.False(t, called)
}

func TestCommandBus_SendNoHandler(t *testing.T) {
	ctx := context.Background()
	bus := NewCommandBus()

	err := bus.Send(ctx, otherCommand{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no handler registered")
}

func TestCommandBus_SendWrapsHandlerError(t *testing.T) {
	ctx := context.Background()
	bus := NewCommandBus()

	handlerErr := errors.New("storage unavailable")
	handler := CommandHandlerFunc(func(_ context.Context, _ Command) error {
		return handlerErr
	})
	require.NoError(t, bus.Register(testCommand{}, handler))

	err := bus.Send(ctx, testCommand{})

	assert.Error(t, err)
	assert.ErrorIs(t, err, handlerErr)
}

func TestCommandBus_RegisterDuplicate(t *testing.T) {
	bus := NewCommandBus()
	handler := CommandHandlerFunc(func(_ context.Context, _ Command) error { return nil })

	require.NoError(t, bus.Register(testCommand{}, handler))
	err := bus.Register(testCommand{}, handler)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestPipeline_AppliesMiddlewareInOrder(t *testing.T) {
	ctx := context.Background()

	var order []string
	mw := func(name string) Middleware {
		return func(next CommandHandler) CommandHandler {
			return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
				order = append(order, name)
				return next.Handle(ctx, cmd)
			})
		}
	}

	pipeline := NewPipeline(mw("outer"), mw("inner"))
	handler := pipeline.Execute(CommandHandlerFunc(func(_ context.Context, _ Command) error {
		order = append(order, "handler")
		return nil
	}))

	err := handler.Handle(ctx, testCommand{})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestLoggingMiddleware_PassesThroughError(t *testing.T) {
	ctx := context.Background()

	handlerErr := errors.New("boom")
	wrapped := LoggingMiddleware(zap.NewNop())(CommandHandlerFunc(func(_ context.Context, _ Command) error {
		return handlerErr
	}))

	err := wrapped.Handle(ctx, testCommand{})
	assert.ErrorIs(t, err, handlerErr)
}
