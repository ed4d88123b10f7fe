package debugs

import (
	"context"
	"maps"
	"slices"

	"github.com/lashvm/lash"
	"github.com/lashvm/lash/logs"
	"github.com/lashvm/lash/modes"
	"go.starlark.net/repl"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
}

// Tap drops into an interactive starlark session over a state's globals,
// for poking at bound values and functions from a breakpoint-like spot.
// Assignments made in the session stay in the session, not in the state.
type Tap func(ctx context.Context, what string, st *lash.State)

func (Module) Tap(
	logger logs.Logger,
	mode modes.Mode,
) Tap {
	return func(ctx context.Context, what string, st *lash.State) {
		if mode == modes.ModeProduction {
			logger.WarnContext(ctx, "tap disabled in production: "+what)
			return
		}

		mappings := StateDict(st)
		logger.InfoContext(ctx, "tap: "+what,
			"globals", slices.Sorted(maps.Keys(mappings)),
		)
		defer func() {
			logger.InfoContext(ctx, "tap end: "+what)
		}()

		thread := &starlark.Thread{
			Name: "repl",
		}
		repl.REPLOptions(fileOptions, thread, mappings)
	}
}
