package debugs

import (
	"context"

	"github.com/lashvm/lash"
	"github.com/lashvm/lash/logs"
	"go.starlark.net/starlark"
)

// Eval executes one starlark chunk against a state. The chunk sees the
// state's globals; module-level bindings it creates are written back into
// the state, so consecutive chunks accumulate. Bindings with no state
// representation, starlark functions for one, are skipped.
type Eval func(ctx context.Context, st *lash.State, name, src string) error

func (Module) Eval(
	logger logs.Logger,
	newSpan logs.NewSpan,
) Eval {
	return func(ctx context.Context, st *lash.State, name, src string) error {
		ctx, _ = newSpan(ctx, "")

		thread := &starlark.Thread{
			Name: name,
		}
		out, err := starlark.ExecFileOptions(fileOptions, thread, name, src, StateDict(st))
		if err != nil {
			return logs.WrapSpan(ctx, err)
		}

		for name, value := range out {
			v, err := fromStarlarkValue(value)
			if err != nil {
				logger.DebugContext(ctx, "skip binding",
					"name", name,
					"error", err,
				)
				continue
			}
			if err := st.Set(name, v); err != nil {
				return logs.WrapSpan(ctx, err)
			}
		}

		logger.DebugContext(ctx, "eval",
			"name", name,
			"bindings", len(out),
		)
		return nil
	}
}

// EvalExpr evaluates a single expression against the state's globals and
// returns its native value.
type EvalExpr func(ctx context.Context, st *lash.State, name, src string) (any, error)

func (Module) EvalExpr(
	newSpan logs.NewSpan,
) EvalExpr {
	return func(ctx context.Context, st *lash.State, name, src string) (any, error) {
		ctx, _ = newSpan(ctx, "")

		thread := &starlark.Thread{
			Name: name,
		}
		val, err := starlark.EvalOptions(fileOptions, thread, name, src, StateDict(st))
		if err != nil {
			return nil, logs.WrapSpan(ctx, err)
		}
		return fromStarlarkValue(val)
	}
}
