package main

import (
	"fmt"
	"path/filepath"

	"dirtidy/internal/config"
	"dirtidy/internal/errors"
	"dirtidy/internal/log"
	"dirtidy/internal/organize"

	"github.com/spf13/cobra"
)

// runOptions holds the flags shared by the root and watch commands.
type runOptions struct {
	directory     string
	rulesPath     string
	verbose       bool
	debug         bool
	sortFiles     bool
	moveDups      bool
	removeEmpty   bool
	collision     string
	verifyContent bool
}

// NewRootCmd creates the root command. Running it organizes the target
// directory once.
func NewRootCmd() *cobra.Command {
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "dirtidy",
		Short: "Sort files into category folders and set duplicates aside",
		Long: `dirtidy organizes a directory tree in place.

Files are moved into category folders by extension according to a rules
file, copies of the same content are moved into Duplicates/ keeping the
newest, and empty folders are removed.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrganize(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.directory, "directory", "d", "", "directory to organize (required)")
	flags.StringVarP(&opts.rulesPath, "config", "c", "rules.toml", "rules file (.toml, .yaml or .yml)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log every action")
	flags.BoolVar(&opts.debug, "debug", false, "log debug output")
	flags.BoolVar(&opts.sortFiles, "sort-files", true, "sort files into category folders (disable with --sort-files=false)")
	flags.BoolVar(&opts.moveDups, "move-duplicates", true, "move duplicate files into Duplicates/ (disable with --move-duplicates=false)")
	flags.BoolVar(&opts.removeEmpty, "remove-empty-folders", true, "remove empty folders (disable with --remove-empty-folders=false)")
	flags.StringVar(&opts.collision, "collision", string(config.CollisionFail), "when a sort destination exists: fail, rename or skip")
	flags.BoolVar(&opts.verifyContent, "verify-content", false, "compare bytes before treating equal checksums as duplicates")

	rootCmd.AddCommand(NewRulesCmd(opts))
	rootCmd.AddCommand(NewWatchCmd(opts))

	return rootCmd
}

// setupLogging points the default logger at the command's stderr. The
// level is warn unless -v or --debug asks for more.
func setupLogging(cmd *cobra.Command, opts *runOptions) log.Logger {
	level := log.WarnLevel
	switch {
	case opts.debug:
		level = log.DebugLevel
	case opts.verbose:
		level = log.InfoLevel
	}
	log.Configure(log.WithOutput(cmd.ErrOrStderr()), log.WithLevel(level))
	return log.Default()
}

// loadConfig resolves the target, loads the rules and applies flag
// overrides. Settings from the rules file hold unless a flag was given.
func loadConfig(cmd *cobra.Command, opts *runOptions) (*config.Config, error) {
	if opts.directory == "" {
		return nil, errors.NewConfigError("no directory given", "--directory", errors.InvalidConfig, nil)
	}
	target, err := filepath.Abs(opts.directory)
	if err != nil {
		return nil, errors.FileOp("cannot resolve directory", opts.directory, errors.FileOperationFailed, err)
	}

	cfg, err := config.Load(target, opts.rulesPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("collision") {
		cfg.Settings.Collision = config.Collision(opts.collision)
	}
	if flags.Changed("verify-content") {
		cfg.Settings.VerifyContent = opts.verifyContent
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *runOptions) passes() organize.Passes {
	return organize.Passes{Sort: o.sortFiles, Dedupe: o.moveDups, Prune: o.removeEmpty}
}

func runOrganize(cmd *cobra.Command, opts *runOptions) error {
	logger := setupLogging(cmd, opts)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	lock, err := organize.Lock(cfg.Target)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	org, err := organize.New(cfg, logger)
	if err != nil {
		return err
	}

	report, err := org.Run(opts.passes())
	// Whatever happened before a failure is still worth showing
	if report != nil {
		fmt.Fprintln(cmd.OutOrStdout(), renderReport(report, opts.verbose || opts.debug))
	}
	return err
}
