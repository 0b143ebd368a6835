// Package scripting embeds a JavaScript engine for template data hooks.
// A definition's script runs once per generation with the data tree
// bound to the global `data` object, and may reshape it before layout.
package scripting

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
)

// Engine wraps a single goja runtime. It is not safe for concurrent use;
// create one per generation run.
type Engine struct {
	vm *goja.Runtime
}

func NewEngine() *Engine {
	return &Engine{vm: goja.New()}
}

// Execute runs script, honoring ctx cancellation via a VM interrupt.
func (e *Engine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

// TransformData binds data as a global, runs the script, and returns the
// possibly-mutated tree.
func (e *Engine) TransformData(ctx context.Context, script string, data map[string]interface{}) (map[string]interface{}, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	if err := e.vm.Set("data", data); err != nil {
		return nil, err
	}
	if _, err := e.Execute(ctx, script); err != nil {
		return nil, err
	}
	out := e.vm.Get("data")
	if out == nil {
		return data, nil
	}
	exported := out.Export()
	tree, ok := exported.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("script replaced data with %T, want object", exported)
	}
	return tree, nil
}
