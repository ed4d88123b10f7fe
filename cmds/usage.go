package cmds

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/mitchellh/go-wordwrap"
)

func (p *Executor) PrintUsage() {
	printCommands(p.commands, 0)
}

func printCommands(commands map[string]*Command, indent int) {
	// group aliases of the same command
	names := make(map[*Command][]string)
	var order []*Command
	for name, command := range commands {
		if command == nil {
			continue
		}
		if _, ok := names[command]; !ok {
			order = append(order, command)
		}
		names[command] = append(names[command], name)
	}
	for _, ns := range names {
		slices.Sort(ns)
	}
	slices.SortFunc(order, func(a, b *Command) int {
		return strings.Compare(names[a][0], names[b][0])
	})

	prefix := strings.Repeat("  ", indent)
	for _, command := range order {
		ns := names[command]
		fmt.Fprintf(os.Stderr, "%s%s\n", prefix, strings.Join(ns, ", "))
		if command.Description != "" {
			wrapped := wordwrap.WrapString(command.Description, 64)
			for _, line := range strings.Split(wrapped, "\n") {
				fmt.Fprintf(os.Stderr, "%s    %s\n", prefix, line)
			}
		}
		if len(command.Subs) > 0 {
			printCommands(command.Subs, indent+1)
		}
	}
}
