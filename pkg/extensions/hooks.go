package extensions

import (
	"context"
	"fmt"
	"sync"
)

// HookPoint is a place in the processing pipeline where callbacks run
type HookPoint string

const (
	HookBeforeStage      HookPoint = "before_stage"
	HookAfterStage       HookPoint = "after_stage"
	HookStageFailed      HookPoint = "stage_failed"
	HookDocumentFinished HookPoint = "document_finished"
)

// StageData describes the pipeline position a hook fires at
type StageData struct {
	DocumentID string
	Stage      string
	Err        error
	Metadata   map[string]interface{}
}

// Hook is a callback invoked at a hook point
type Hook func(ctx context.Context, data StageData) error

// HookManager holds registered hooks per point. Registration normally
// happens at startup; execution is concurrency safe.
type HookManager struct {
	mu    sync.RWMutex
	hooks map[HookPoint][]Hook
}

// NewHookManager creates an empty hook manager
func NewHookManager() *HookManager {
	return &HookManager{hooks: make(map[HookPoint][]Hook)}
}

// Register adds a hook at a point
func (m *HookManager) Register(point HookPoint, hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[point] = append(m.hooks[point], hook)
}

// Execute runs the hooks for a point in registration order, stopping at
// the first failure
func (m *HookManager) Execute(ctx context.Context, point HookPoint, data StageData) error {
	m.mu.RLock()
	hooks := m.hooks[point]
	m.mu.RUnlock()

	for i, hook := range hooks {
		if err := hook(ctx, data); err != nil {
			return fmt.Errorf("hook %d at %s failed: %w", i, point, err)
		}
	}
	return nil
}

// ExecuteAsync runs the hooks for a point without waiting for them;
// errors are discarded
func (m *HookManager) ExecuteAsync(ctx context.Context, point HookPoint, data StageData) {
	m.mu.RLock()
	hooks := m.hooks[point]
	m.mu.RUnlock()

	for _, hook := range hooks {
		go func(h Hook) {
			_ = h(ctx, data)
		}(hook)
	}
}

// Clear removes all hooks at a point
func (m *HookManager) Clear(point HookPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hooks, point)
}
