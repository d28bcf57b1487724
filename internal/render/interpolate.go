package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/planloom/planloom/pkg/schema"
)

// Interpolator resolves ${{...}} expressions inside string parameter values
// against the plan's inputs. Resolution is best-effort: a token that fails
// to compile, errors at runtime, or evaluates to nil is left in place
// verbatim, so rendering never fails on a bad expression.
// Thread-safe: compiled *vm.Program objects are cached and reused.
type Interpolator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewInterpolator creates an Interpolator with an empty program cache.
func NewInterpolator() *Interpolator {
	return &Interpolator{cache: make(map[string]*vm.Program)}
}

// exprEnv builds the expression environment for a plan: the plan's inputs
// plus a small metadata namespace.
func exprEnv(plan schema.PlanSpec) map[string]any {
	inputs := plan.Inputs
	if inputs == nil {
		inputs = map[string]any{}
	}
	return map[string]any{
		"inputs": inputs,
		"plan": map[string]any{
			"name":    plan.Name,
			"trigger": string(plan.Trigger),
		},
	}
}

// Apply resolves expressions in every string value of a parameter map,
// recursing into nested maps and slices. Containers are copied rather than
// edited in place, so caller-supplied maps are never mutated.
func (in *Interpolator) Apply(params map[string]any, env map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = in.applyValue(v, env)
	}
	return out
}

func (in *Interpolator) applyValue(v any, env map[string]any) any {
	switch val := v.(type) {
	case string:
		return in.resolveString(val, env)
	case map[string]any:
		return in.Apply(val, env)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = in.applyValue(item, env)
		}
		return out
	default:
		return v
	}
}

// resolveString resolves all ${{...}} tokens in s. When the whole string is
// a single token, the evaluated value is returned with its type intact;
// otherwise resolved values are stringified into the surrounding text.
func (in *Interpolator) resolveString(s string, env map[string]any) any {
	if !strings.Contains(s, "${{") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	rest := s
	first := true
	for {
		idx := strings.Index(rest, "${{")
		if idx == -1 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[idx+3:], "}}")
		if end == -1 {
			// Unclosed token, keep as-is.
			b.WriteString(rest)
			break
		}
		end += idx + 3

		token := rest[idx : end+2]
		expression := strings.TrimSpace(rest[idx+3 : end])

		val, err := in.evaluate(expression, env)
		if err != nil || val == nil {
			// Leave the token untouched; lint surfaces the problem.
			val = token
		}

		// Whole-string single token: preserve the value's type.
		if first && idx == 0 && end+2 == len(rest) {
			return val
		}

		b.WriteString(rest[:idx])
		if str, ok := val.(string); ok {
			b.WriteString(str)
		} else {
			fmt.Fprintf(&b, "%v", val)
		}
		rest = rest[end+2:]
		first = false
	}

	return b.String()
}

// evaluate compiles (or fetches from cache) and runs an expression.
func (in *Interpolator) evaluate(expression string, env map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeInterpolation, "empty expression")
	}

	prg, err := in.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	out, err := vm.Run(prg, env)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeInterpolation,
			"expression %q failed: %s", expression, err.Error()).WithCause(err)
	}
	return out, nil
}

func (in *Interpolator) getOrCompile(expression string) (*vm.Program, error) {
	in.mu.RLock()
	if prg, ok := in.cache[expression]; ok {
		in.mu.RUnlock()
		return prg, nil
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()

	if prg, ok := in.cache[expression]; ok {
		return prg, nil
	}

	prg, err := expr.Compile(expression,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeInterpolation,
			"cannot compile expression %q: %s", expression, err.Error()).WithCause(err)
	}

	in.cache[expression] = prg
	return prg, nil
}
