package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"tsmulti/internal/builder"
	"tsmulti/internal/config"
	"tsmulti/internal/errors"
	"tsmulti/internal/report"
	"tsmulti/internal/slogutil"
	"tsmulti/internal/version"
)

// exitCode is what main exits with after a successful command run.
var exitCode int

type buildFlags struct {
	config        string
	cwd           string
	watch         bool
	clean         bool
	transpileOnly bool
	verbose       int
	quiet         bool
	dry           bool
	force         bool
	maxWorkers    int
	compiler      string
	logLevel      string
	logFile       string
}

var flags buildFlags

var rootCmd = &cobra.Command{
	Use:   "tsmulti [projects...]",
	Short: "Compile a TypeScript project into several module targets",
	Long: `tsmulti builds one TypeScript or JavaScript project into several targets,
for example ES modules and CommonJS, from a single source tree. Module
references are rewritten to each target's extension, shared runtime helpers
can be consolidated into one module per target and every target keeps its
own incremental build cache.

Projects are tsconfig files or directories containing tsconfig.json; glob
patterns are allowed. Without arguments the projects of tsc-multi.json are
built.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBuild,
}

func init() {
	rootCmd.SetVersionTemplate("tsmulti version {{.Version}}\n")
	rootCmd.Long += "\n\nEnvironment:\n  " + strings.Join(config.SupportedEnvVars(), "\n  ")

	f := rootCmd.Flags()
	f.StringVarP(&flags.config, "config", "c", "", "Path to the config file (default: tsc-multi.json)")
	f.StringVar(&flags.cwd, "cwd", "", "Working directory (default: current directory)")
	f.BoolVarP(&flags.watch, "watch", "w", false, "Watch input files and rebuild on change")
	f.BoolVar(&flags.clean, "clean", false, "Delete the outputs of all projects")
	f.BoolVar(&flags.transpileOnly, "transpile-only", false, "Compile each file independently")
	f.CountVarP(&flags.verbose, "verbose", "v", "Print more output (repeat for debug logs)")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "Only print errors")
	f.BoolVar(&flags.dry, "dry", false, "Show what would be built or deleted")
	f.BoolVarP(&flags.force, "force", "f", false, "Build all projects, ignoring the build cache")
	f.IntVar(&flags.maxWorkers, "max-workers", 0, "Maximum number of targets built concurrently (0: all)")
	f.StringVar(&flags.compiler, "compiler", "", "Compiler to use (default: esbuild)")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	f.StringVar(&flags.logFile, "log-file", "", "Also write debug logs to this file")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cwd := flags.cwd
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return err
		}
	}

	logger, closeLog, err := newLogger(cmd.ErrOrStderr(), &flags)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, overrides, err := config.Load(config.LoadOptions{Cwd: cwd, Path: flags.config})
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
		return err
	}
	for _, o := range overrides {
		logger.Debug("Environment override applied", "var", o.Var, "field", o.Field, "value", o.Value)
	}
	applyFlags(cmd, cfg, &flags)

	projects, err := resolveProjectArgs(cwd, args, cfg)
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
		return err
	}

	reporter := report.NewText(cmd.ErrOrStderr(), len(cfg.Targets) > 1)
	o, err := builder.New(buildOptions(cfg, &flags), nil, reporter, logger)
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("Starting tsmulti",
		"version", version.Info(),
		"config", cfg.Path,
		"targets", len(cfg.Targets),
		"projects", len(projects))
	if flags.clean {
		exitCode = o.Clean(ctx, cfg.Targets, projects)
	} else {
		exitCode = o.Build(ctx, cfg.Targets, projects)
	}
	return nil
}

// newLogger logs to w at the level chosen by the flags and, with
// --log-file, everything at debug level to the file as well.
func newLogger(w io.Writer, f *buildFlags) (*slog.Logger, func(), error) {
	level := slogutil.LevelFromVerbosity(f.verbose, f.quiet)
	if f.logLevel != "" {
		level = slogutil.LevelFromString(f.logLevel)
	}
	logger := slogutil.NewLogger(w, level)
	if f.logFile == "" {
		return logger, func() {}, nil
	}

	fileLogger, file, err := slogutil.NewFileLogger(f.logFile, slog.LevelDebug)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file: %w", err)
	}
	tee := slogutil.NewTeeLogger(logger.Handler(), fileLogger.Handler())
	return tee, func() { file.Close() }, nil
}

// applyFlags lets explicitly set flags win over the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f *buildFlags) {
	if cmd.Flags().Changed("max-workers") {
		cfg.MaxWorkers = f.maxWorkers
	}
	if cmd.Flags().Changed("compiler") {
		cfg.Compiler = f.compiler
	}
}

// resolveProjectArgs picks the projects to build: command line patterns
// relative to cwd, else the config's projects, else cwd itself.
func resolveProjectArgs(cwd string, args []string, cfg *config.Config) ([]string, error) {
	if len(args) > 0 {
		projects, err := config.ResolveProjects(cwd, args)
		if err != nil {
			return nil, err
		}
		if len(projects) == 0 {
			return nil, errors.Newf(errors.ProjectNotFound, "no project matches %s", strings.Join(args, " "))
		}
		return projects, nil
	}
	if len(cfg.Projects) > 0 {
		return cfg.Projects, nil
	}
	return []string{cwd}, nil
}

func buildOptions(cfg *config.Config, f *buildFlags) builder.Options {
	return builder.Options{
		Compiler:            cfg.Compiler,
		ShareHelpers:        cfg.ShareHelpers,
		PureClassAssignment: cfg.PureClassAssignment,
		MaxWorkers:          cfg.MaxWorkers,
		TranspileOnly:       f.transpileOnly,
		Watch:               f.watch,
		Verbose:             f.verbose > 0,
		Dry:                 f.dry,
		Force:               f.force,
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	for _, fix := range errors.GetSuggestedFixes(errors.CodeOf(err)) {
		if fix.Command != "" {
			fmt.Fprintf(w, "  Fix: %s (%s)\n", fix.Description, fix.Command)
		} else {
			fmt.Fprintf(w, "  Fix: %s\n", fix.Description)
		}
	}
}
