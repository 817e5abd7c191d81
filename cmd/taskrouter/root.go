package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leofalp/taskrouter/core/orchestrator"
	"github.com/leofalp/taskrouter/internal/config"
)

var version = "0.1.0"

type rootOptions struct {
	configPath string
	verbose    bool
	// Legacy flags kept for scripts that predate the run subcommand.
	task string
	mode string

	app *app
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "taskrouter",
		Short:         "Route free-text tasks to tools",
		Long:          "taskrouter picks a tool for each task, or splits a complex task into steps and runs one tool per step.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr(), opts.verbose)
			if err != nil {
				return err
			}
			opts.app = a
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.task == "" {
				return runInteractive(cmd, opts.app, opts.mode)
			}
			return runTask(cmd, opts.app, opts.task, opts.mode)
		},
	}
	cmd.SetVersionTemplate("taskrouter version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML configuration file (default ./"+config.DefaultFile+" when present)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	cmd.Flags().StringVar(&opts.task, "task", "", "task description (deprecated, use the run command)")
	cmd.Flags().StringVar(&opts.mode, "mode", string(orchestrator.ModeSingle), "execution mode: single, multi or auto")
	_ = cmd.Flags().MarkDeprecated("task", "use \"taskrouter run <task>\" instead")

	cmd.AddCommand(
		newRunCommand(opts),
		newInteractiveCommand(opts),
		newToolsCommand(opts),
		newServeCommand(opts),
	)
	return cmd
}

func newRunCommand(root *rootOptions) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "run <task...>",
		Short: "Execute a single task and print the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, root.app, joinArgs(args), mode)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(orchestrator.ModeSingle), "execution mode: single, multi or auto")
	return cmd
}

func newInteractiveCommand(root *rootOptions) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Read tasks from standard input until exit",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd, root.app, mode)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(orchestrator.ModeSingle), "initial execution mode: single, multi or auto")
	return cmd
}

func newToolsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			renderTools(cmd.OutOrStdout(), root.app.registry)
			return nil
		},
	}
}

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = root.app.cfg.Server.Addr
			}
			return serve(cmd.Context(), root.app, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	return cmd
}

func runTask(cmd *cobra.Command, a *app, description, modeName string) error {
	mode, err := orchestrator.ParseMode(modeName)
	if err != nil {
		return err
	}
	report, err := a.orchestrator.Execute(cmd.Context(), description, mode)
	if err != nil && report.TaskID == "" {
		return fmt.Errorf("execute task: %w", err)
	}
	renderReport(cmd.OutOrStdout(), report, a.verbose())
	return err
}
