// Package interp evaluates the ${...} expressions embedded in journey
// definitions. Expressions are JavaScript, run against the journey's
// shared data exposed as globals.
package interp

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// Engine wraps a goja runtime seeded with journey data.
type Engine struct {
	runtime *goja.Runtime
	mu      sync.Mutex
}

// New creates an engine with an empty global scope.
func New() *Engine {
	return &Engine{runtime: goja.New()}
}

// SetGlobal exposes a single value to expressions under the given name.
func (e *Engine) SetGlobal(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runtime.Set(name, value)
}

// SetGlobals exposes every entry of the map to expressions. Dotted keys
// like "contact.email" are additionally grouped into nested objects so
// both data["contact.email"] and contact.email resolve.
func (e *Engine) SetGlobals(vars map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.runtime.Set("data", vars)
	grouped := make(map[string]map[string]any)
	for name, value := range vars {
		if prefix, rest, ok := strings.Cut(name, "."); ok {
			if grouped[prefix] == nil {
				grouped[prefix] = make(map[string]any)
			}
			grouped[prefix][rest] = value
			continue
		}
		e.runtime.Set(name, value)
	}
	for prefix, members := range grouped {
		e.runtime.Set(prefix, members)
	}
}

// Eval evaluates a JavaScript expression and returns the result.
func (e *Engine) Eval(expr string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(expr)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", expr, err)
	}
	return result.Export(), nil
}

// EvalString evaluates an expression and stringifies the result.
func (e *Engine) EvalString(expr string) (string, error) {
	result, err := e.Eval(expr)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return fmt.Sprintf("%v", result), nil
}

// Expand replaces each ${expr} in text with the stringified evaluation
// of expr. Braces inside an expression are matched, so object literals
// work. Text without ${ passes through untouched. Journey definitions
// are authored files, so a failing expression is an error, not a skip.
func (e *Engine) Expand(text string) (string, error) {
	result := text
	start := 0

	for {
		idx := strings.Index(result[start:], "${")
		if idx == -1 {
			break
		}
		idx += start

		depth := 1
		end := idx + 2
		for end < len(result) && depth > 0 {
			switch result[end] {
			case '{':
				depth++
			case '}':
				depth--
			}
			end++
		}
		if depth != 0 {
			return "", fmt.Errorf("unterminated ${ expression in %q", text)
		}

		expr := result[idx+2 : end-1]
		value, err := e.EvalString(expr)
		if err != nil {
			return "", err
		}

		result = result[:idx] + value + result[end:]
		start = idx + len(value)
	}

	return result, nil
}
