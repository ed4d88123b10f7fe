package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lashvm/lash"
	"github.com/lashvm/lash/cmds"
	"github.com/lashvm/lash/configs"
	"github.com/lashvm/lash/debugs"
	"github.com/lashvm/lash/logs"
	"github.com/lashvm/lash/modes"
	"github.com/reusee/dscope"
)

var (
	evalSrc     = cmds.Var[string]("-e")
	loadFiles   = cmds.Collect[string]("-f")
	tapSession  = cmds.Switch("-tap")
	historyFlag = cmds.Var[string]("-history")
)

func init() {
	cmds.Define("-version", cmds.Func(func() {
		fmt.Println("lash shell")
		os.Exit(0)
	}).Desc("print version"))
}

func main() {
	cmds.Execute(os.Args[1:])
	ctx := context.Background()

	dscope.New(
		new(Module),
		modes.ForDevelopment(),
	).Call(func(
		logger logs.Logger,
		loader configs.Loader,
		eval debugs.Eval,
		evalExpr debugs.EvalExpr,
		tap debugs.Tap,
	) {

		st := lash.NewState(lash.WithLogger(logger))
		defer st.Close()

		for name, value := range configs.First[map[string]any](loader, "predefine") {
			if err := st.Set(name, value); err != nil {
				logger.Error("predefine",
					"name", name,
					"error", err,
				)
				os.Exit(1)
			}
		}

		for _, path := range *loadFiles {
			content, err := os.ReadFile(path)
			if err != nil {
				logger.Error("load", "path", path, "error", err)
				os.Exit(1)
			}
			if err := eval(ctx, st, path, string(content)); err != nil {
				logger.Error("load", "path", path, "error", err)
				os.Exit(1)
			}
		}

		if src := *evalSrc; src != "" {
			if err := eval(ctx, st, "-e", src); err != nil {
				logger.Error("eval", "error", err)
				os.Exit(1)
			}
			return
		}

		if *tapSession {
			tap(ctx, "lash", st)
			return
		}

		runREPL(ctx, st, loader, eval, evalExpr)
	})
}
