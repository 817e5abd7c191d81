package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/taskrouter/core/orchestrator"
)

const interactiveHelp = `Type a task and press enter.
  mode <single|multi|auto>  change the execution mode
  tools                     list registered tools
  help                      show this message
  exit, quit                leave`

// runInteractive reads one task per line until EOF, exit or cancellation.
// A failing task is reported and the loop continues.
func runInteractive(cmd *cobra.Command, a *app, modeName string) error {
	mode, err := orchestrator.ParseMode(modeName)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	fmt.Fprintf(out, "%s %s (mode: %s). Type \"help\" for commands.\n", bold("taskrouter"), version, mode)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, cyan("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		word, rest, _ := strings.Cut(line, " ")
		switch strings.ToLower(word) {
		case "exit", "quit":
			fmt.Fprintln(out, "Bye.")
			return nil
		case "help":
			fmt.Fprintln(out, interactiveHelp)
			continue
		case "tools":
			renderTools(out, a.registry)
			continue
		case "mode":
			next, err := orchestrator.ParseMode(rest)
			if err != nil || strings.TrimSpace(rest) == "" {
				fmt.Fprintln(out, red("usage: mode <single|multi|auto>"))
				continue
			}
			mode = next
			fmt.Fprintf(out, "Mode set to %s.\n", mode)
			continue
		}

		report, err := a.orchestrator.Execute(ctx, line, mode)
		if report.TaskID != "" {
			renderReport(out, report, a.verbose())
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintln(out, red("Error: "+err.Error()))
		}
	}
}
