package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/leofalp/taskrouter/core/orchestrator"
	"github.com/leofalp/taskrouter/providers/tool"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func renderReport(w io.Writer, report orchestrator.ExecutionReport, showSteps bool) {
	fmt.Fprintln(w, bold("Result:"))
	fmt.Fprintln(w, report.Answer)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s %s   %s %s", faint("mode:"), cyan(string(report.ModeUsed)),
		faint("complexity:"), report.ComplexityLabel())
	if failed := report.FailedSteps(); failed > 0 {
		fmt.Fprintf(w, "   %s", yellow(fmt.Sprintf("%d of %d steps failed", failed, len(report.Steps))))
	}
	if report.Partial {
		fmt.Fprintf(w, "   %s", yellow("partial"))
	}
	fmt.Fprintln(w)

	if !showSteps {
		return
	}
	for _, step := range report.Steps {
		name := step.Invocation.ToolName
		if name == "" {
			name = "-"
		}
		status := green("ok")
		if !step.Result.OK() {
			status = red("error")
		}
		fmt.Fprintf(w, "  %s %-12s %s %s\n", faint(fmt.Sprintf("[%d]", step.Index)), name, status, step.Subtask)
	}
}

func renderTools(w io.Writer, registry *tool.Registry) {
	for spec := range registry.List() {
		var params []string
		if spec.Parameters != nil {
			params = slices.Sorted(maps.Keys(spec.Parameters.Properties))
		}
		fmt.Fprintf(w, "%s  %s\n", green(spec.Name), spec.Description)
		if len(params) > 0 {
			fmt.Fprintf(w, "    %s %s\n", faint("params:"), strings.Join(params, ", "))
		}
	}
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
