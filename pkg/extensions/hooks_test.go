package extensions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookManager_ExecuteRunsInRegistrationOrder(t *testing.T) {
	manager := NewHookManager()
	var order []string

	manager.Register(HookBeforeStage, func(context.Context, StageData) error {
		order = append(order, "first")
		return nil
	})
	manager.Register(HookBeforeStage, func(context.Context, StageData) error {
		order = append(order, "second")
		return nil
	})

	err := manager.Execute(context.Background(), HookBeforeStage, StageData{Stage: "analyze"})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestHookManager_ExecuteStopsAtFirstFailure(t *testing.T) {
	manager := NewHookManager()
	hookErr := errors.New("veto")
	secondCalled := false

	manager.Register(HookBeforeStage, func(context.Context, StageData) error {
		return hookErr
	})
	manager.Register(HookBeforeStage, func(context.Context, StageData) error {
		secondCalled = true
		return nil
	})

	err := manager.Execute(context.Background(), HookBeforeStage, StageData{Stage: "analyze"})

	require.Error(t, err)
	assert.ErrorIs(t, err, hookErr)
	assert.False(t, secondCalled)
}

func TestHookManager_ExecuteWithNoHooks(t *testing.T) {
	manager := NewHookManager()

	err := manager.Execute(context.Background(), HookAfterStage, StageData{})

	assert.NoError(t, err)
}

func TestHookManager_HooksReceiveStageData(t *testing.T) {
	manager := NewHookManager()
	var got StageData

	manager.Register(HookStageFailed, func(_ context.Context, data StageData) error {
		got = data
		return nil
	})

	data := StageData{
		DocumentID: "doc-1",
		Stage:      "persist",
		Err:        errors.New("write throttled"),
	}
	require.NoError(t, manager.Execute(context.Background(), HookStageFailed, data))

	assert.Equal(t, data, got)
}

func TestHookManager_ExecuteAsyncRunsAllHooks(t *testing.T) {
	manager := NewHookManager()
	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	calls := 0

	record := func(context.Context, StageData) error {
		mu.Lock()
		calls++
		mu.Unlock()
		wg.Done()
		return nil
	}
	manager.Register(HookDocumentFinished, record)
	manager.Register(HookDocumentFinished, record)

	manager.ExecuteAsync(context.Background(), HookDocumentFinished, StageData{DocumentID: "doc-1"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async hooks did not run")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestHookManager_ExecuteAsyncIgnoresErrors(t *testing.T) {
	manager := NewHookManager()
	ran := make(chan struct{})

	manager.Register(HookDocumentFinished, func(context.Context, StageData) error {
		close(ran)
		return errors.New("discarded")
	})

	manager.ExecuteAsync(context.Background(), HookDocumentFinished, StageData{})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("async hook did not run")
	}
}

func TestHookManager_ClearRemovesPointOnly(t *testing.T) {
	manager := NewHookManager()
	beforeCalled := false
	afterCalled := false

	manager.Register(HookBeforeStage, func(context.Context, StageData) error {
		beforeCalled = true
		return nil
	})
	manager.Register(HookAfterStage, func(context.Context, StageData) error {
		afterCalled = true
		return nil
	})

	manager.Clear(HookBeforeStage)
	require.NoError(t, manager.Execute(context.Background(), HookBeforeStage, StageData{}))
	require.NoError(t, manager.Execute(context.Background(), HookAfterStage, StageData{}))

	assert.False(t, beforeCalled)
	assert.True(t, afterCalled)
}
