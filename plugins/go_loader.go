package plugins

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/kingrea/flowbench/internal/processor"
)

const (
	// ScriptFile is the Go source interpreted for script modules.
	ScriptFile     = "source.go"
	scriptFuncName = "Run"
)

// ScriptProcessor runs a module written as interpreted Go. The source must be
// package main and declare:
//
//	func Run(inputs map[string]any) (any, error)
type ScriptProcessor struct {
	path string
	mu   sync.Mutex
	fn   reflect.Value
}

// LoadScript interprets path and resolves its Run function.
func LoadScript(path string) (*ScriptProcessor, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("plugin: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("plugin: load stdlib symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	fn, err := i.Eval(scriptFuncName)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s must define %s(map[string]any) (any, error): %w", path, scriptFuncName, err)
	}
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("plugin: %s: %s is not a function", path, scriptFuncName)
	}
	if t := fn.Type(); t.NumIn() != 1 || t.NumOut() != 2 {
		return nil, fmt.Errorf("plugin: %s: %s must have signature func(map[string]any) (any, error)", path, scriptFuncName)
	}
	return &ScriptProcessor{path: path, fn: fn}, nil
}

// Run calls the script's Run function. Calls are serialized because the
// interpreter is not safe for concurrent use.
func (p *ScriptProcessor) Run(ctx context.Context, inputs map[string]any) (processor.Result, error) {
	if err := ctx.Err(); err != nil {
		return processor.Result{}, err
	}
	if inputs == nil {
		inputs = map[string]any{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	value, err := invokeScriptFunc(p.fn, inputs)
	if err != nil {
		return processor.Result{}, err
	}
	return processor.Completed(value), nil
}

func invokeScriptFunc(fn reflect.Value, inputs map[string]any) (any, error) {
	if typed, ok := fn.Interface().(func(map[string]any) (any, error)); ok {
		return typed(inputs)
	}
	results := fn.Call([]reflect.Value{reflect.ValueOf(inputs)})
	if len(results) != 2 {
		return nil, fmt.Errorf("%s must return (any, error)", scriptFuncName)
	}
	if errVal := results[1]; errVal.IsValid() && !errVal.IsNil() {
		if e, ok := errVal.Interface().(error); ok {
			return nil, e
		}
		return nil, fmt.Errorf("%s returned non-error second value", scriptFuncName)
	}
	if !results[0].IsValid() {
		return nil, nil
	}
	return results[0].Interface(), nil
}
