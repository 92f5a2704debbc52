package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/semforge/commands"
	"github.com/c360studio/semforge/config"
)

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Planning artifact pipeline",
		Long: `Semforge turns a sequence of structured planning documents — requirements,
data model, flows, tasks, architecture decisions, scaffold plan — into a
generated project skeleton, and later keeps that project synchronized with
upstream template improvements.

It provides:
- Schema validation across typed artifacts with stable identifiers
- Deterministic template rendering and scaffold application
- Migration with classification, preview, backup, and rollback`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		validateCmd(),
		applyCmd(),
		migrateCmd(),
		exportCmd(),
		statusCmd(),
		versionCmd(),
	)
	return cmd
}

// configureLogging sets the default slog handler. The flag wins over the
// layered config's log.level; both default to info.
func configureLogging(flagLevel string) {
	levelName := flagLevel
	if levelName == "" {
		if cfg, err := config.NewLoader(discardLogger()).Load(); err == nil {
			levelName = cfg.Log.Level
		}
	}

	level := slog.LevelInfo
	switch strings.ToLower(levelName) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// discardLogger suppresses loader chatter while the log level itself is
// still being resolved.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// loadConfig resolves the layered configuration for verbs that take
// defaults from it.
func loadConfig() *config.Config {
	cfg, err := config.NewLoader(slog.Default()).Load()
	if err != nil {
		slog.Warn("Falling back to default config", "error", err)
		return config.DefaultConfig()
	}
	return cfg
}

func validateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate an artifact file or directory against its siblings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := loadConfig().Artifacts.Dir
			if len(args) > 0 {
				path = args[0]
			}
			c := &commands.ValidateCommand{Path: path, Format: format}
			return c.Execute(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")
	return cmd
}

func applyCmd() *cobra.Command {
	var (
		planPath     string
		templateRoot string
		outputDir    string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply an approved scaffold plan into an output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if templateRoot == "" {
				templateRoot = cfg.Templates.Root
			}
			if templateRoot == "" {
				return fmt.Errorf("no template root: pass --templates or set templates.root in %s", config.ProjectConfigFile)
			}
			c := &commands.ApplyCommand{
				PlanPath:     planPath,
				TemplateRoot: templateRoot,
				OutputDir:    outputDir,
				Format:       format,
			}
			return c.Execute(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "Scaffold plan artifact file")
	cmd.Flags().StringVar(&templateRoot, "templates", "", "Template root directory")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output project directory")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func migrateCmd() *cobra.Command {
	var (
		projectDir   string
		templateRoot string
		approver     string
		format       string
	)

	cmd := &cobra.Command{
		Use:       "migrate <check|preview|approve|apply|rollback>",
		Short:     "Synchronize a generated project with its mothership templates",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"check", "preview", "approve", "apply", "rollback"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if templateRoot == "" {
				templateRoot = cfg.Templates.Root
			}
			mode := args[0]
			if templateRoot == "" && mode != "rollback" {
				return fmt.Errorf("no template root: pass --templates or set templates.root in %s", config.ProjectConfigFile)
			}
			c := &commands.MigrateCommand{
				Mode:         mode,
				ProjectDir:   projectDir,
				TemplateRoot: templateRoot,
				Approver:     approver,
				Approvers:    cfg.Migration.Approvers,
				Format:       format,
			}
			return c.Execute(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Generated project directory")
	cmd.Flags().StringVar(&templateRoot, "templates", "", "Template root directory")
	cmd.Flags().StringVar(&approver, "approver", "", "Approver name (approve mode)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		dialect string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export sql [path]",
		Short: "Export the erd artifact as SQL DDL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "sql" {
				return fmt.Errorf("unknown export target %q (want sql)", args[0])
			}
			path := loadConfig().Artifacts.Dir
			if len(args) > 1 {
				path = args[1]
			}
			c := &commands.ExportCommand{Path: path, Dialect: dialect, Output: output}
			return c.Execute(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", "postgres", "SQL dialect")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default stdout)")
	return cmd
}

func statusCmd() *cobra.Command {
	var (
		projectDir string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a generated project's connection and migration state",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &commands.StatusCommand{ProjectDir: projectDir, Format: format}
			return c.Execute(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Generated project directory")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}
