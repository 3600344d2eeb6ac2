package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dirtidy/internal/config"
	"dirtidy/internal/errors"

	"github.com/spf13/cobra"
)

// NewRulesCmd creates the rules command
func NewRulesCmd(opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the rules file",
		Long:  `Show how extensions map to category folders and which patterns are ignored.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd, opts)
			cfg, err := rulesConfig(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRules(cfg))
			return nil
		},
	}

	cmd.AddCommand(newRulesInitCmd(opts))
	cmd.AddCommand(newRulesTestCmd(opts))
	return cmd
}

// rulesConfig validates the rules file without requiring a directory.
func rulesConfig(opts *runOptions) (*config.Config, error) {
	dir := opts.directory
	if dir == "" {
		dir = "."
	}
	rules, err := config.LoadRules(opts.rulesPath)
	if err != nil {
		return nil, err
	}
	return config.New(dir, rules)
}

func renderRules(cfg *config.Config) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Categories") + "\n")
	var rows [][]string
	for _, category := range cfg.Mapping.Categories() {
		var exts []string
		for _, rule := range cfg.Mapping.Rules() {
			if rule.Category == category {
				exts = append(exts, rule.Extension)
			}
		}
		rows = append(rows, []string{category, strings.Join(exts, " ")})
	}
	rows = append(rows, []string{config.OthersDir, mutedStyle.Render("everything else")})
	b.WriteString(renderTable([]string{"Folder", "Extensions"}, rows, nil) + "\n")

	b.WriteString(titleStyle.Render("Ignored") + "\n")
	if cfg.Ignored.Len() == 0 {
		b.WriteString(mutedStyle.Render("nothing"))
	} else {
		b.WriteString(strings.Join(cfg.Ignored.Patterns(), "\n"))
	}

	b.WriteString("\n" + titleStyle.Render("Settings") + "\n")
	b.WriteString(fmt.Sprintf("collision: %s\nverify_content: %t", cfg.Settings.Collision, cfg.Settings.VerifyContent))
	return b.String()
}

// newRulesInitCmd creates the 'rules init' command
func newRulesInitCmd(opts *runOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter rules file",
		Long:  `Write a rules file with common categories to the --config path.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd, opts)
			path := opts.rulesPath
			if _, err := os.Stat(path); err == nil && !force {
				return errors.NewFileError("rules file already exists, pass --force to replace it", path, errors.FileOperationFailed, errors.ErrDestinationUsed)
			}
			if err := config.SaveRules(config.DefaultRules(), path); err != nil {
				return errors.FileOp("cannot write rules file", path, errors.FileOperationFailed, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Wrote "+path))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing rules file")
	return cmd
}

// newRulesTestCmd creates the 'rules test' command
func newRulesTestCmd(opts *runOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test FILE...",
		Short: "Show where files would be sorted",
		Long:  `Show the folder each named file would be sorted into, without moving anything.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd, opts)
			cfg, err := rulesConfig(opts)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(args))
			for _, arg := range args {
				name := filepath.Base(arg)
				switch {
				case cfg.Ignores(arg):
					rows = append(rows, []string{name, mutedStyle.Render("ignored")})
				default:
					folder := config.OthersDir
					if category, ok := cfg.Mapping.Category(name); ok {
						folder = category
					}
					rows = append(rows, []string{name, folder + "/"})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"File", "Folder"}, rows, nil))
			return nil
		},
	}
}
