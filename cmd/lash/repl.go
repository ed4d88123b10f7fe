package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/lashvm/lash"
	"github.com/lashvm/lash/configs"
	"github.com/lashvm/lash/debugs"
	"github.com/lashvm/lash/vars"
	"go.starlark.net/syntax"
)

var replOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
}

func runREPL(
	ctx context.Context,
	st *lash.State,
	loader configs.Loader,
	eval debugs.Eval,
	evalExpr debugs.EvalExpr,
) {
	var defaultHistory string
	if home, err := os.UserHomeDir(); err == nil {
		defaultHistory = filepath.Join(home, ".lash_history")
	}
	historyFile := vars.FirstNonZero(
		vars.DerefOrZero(historyFlag),
		configs.First[string](loader, "history_file"),
		defaultHistory,
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: historyFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	defer rl.Close()

	n := 0
	for {
		line, err := rl.Readline()
		if err != nil { // Ctrl-C or Ctrl-D
			break
		}
		if line == "" {
			continue
		}
		n++
		name := fmt.Sprintf("repl#%d", n)

		// expressions print their value; anything else runs as a chunk
		if _, err := replOptions.ParseExpr(name, line, 0); err == nil {
			res, err := evalExpr(ctx, st, name, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			} else if res != nil {
				fmt.Println(res)
			}
			continue
		}

		if err := eval(ctx, st, name, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}
