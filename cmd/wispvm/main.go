// Command wispvm runs a hand-assembled bytecode program through the
// interpreter. There is no compiler in this module (spec §1's external
// compiler boundary), so the --demo flag selects one of pkg/vmasm's
// hand-assembled seed scenarios rather than accepting a source file.
//
// Flag/command shape grounded on wudi-hey/cmd/hey/main.go's
// cli.Command{Flags, Action} layout.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"wisp/pkg/vm"
	"wisp/pkg/vmasm"
)

func main() {
	app := &cli.Command{
		Name:  "wispvm",
		Usage: "run a hand-assembled wisp bytecode program",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "print a stack/heap dump before every instruction",
			},
			&cli.StringFlag{
				Name:  "demo",
				Usage: "name of the seed scenario to run (see --list)",
				Value: "arithmetic",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "list available demo scenarios and exit",
			},
		},
		Action: runAction,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "wispvm: %v\n", err)
		os.Exit(1)
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("list") {
		for _, d := range vmasm.Demos {
			fmt.Printf("%-16s %s\n", d.Name, d.Description)
		}
		return nil
	}

	name := cmd.String("demo")
	demo, ok := vmasm.Get(name)
	if !ok {
		return fmt.Errorf("unknown demo %q (use --list to see available scenarios)", name)
	}

	heap, entryID := demo.Build()
	machine := vm.New(heap, entryID, vm.Config{
		Debug:  cmd.Bool("debug"),
		Output: os.Stdout,
	})

	result, vmErr := machine.Run()
	if vmErr != nil {
		return fmt.Errorf("%s halted: %w", name, vmErr)
	}
	if cmd.Bool("debug") {
		fmt.Fprintf(os.Stderr, "%s halted with status %d, result kind %s\n", name, result.Status, result.Value.Kind())
	}
	return nil
}
