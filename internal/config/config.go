// Package config turns a rules file and a target directory into the
// immutable Config an organizer run works from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dirtidy/internal/errors"
)

// Reserved folder names under the target root.
const (
	OthersDir     = "Others"
	DuplicatesDir = "Duplicates"
)

// Collision says what the sort pass does when a file's destination is
// already taken.
type Collision string

const (
	// CollisionFail aborts the pass with an error.
	CollisionFail Collision = "fail"
	// CollisionRename moves the file under the next free name_N.ext.
	CollisionRename Collision = "rename"
	// CollisionSkip logs and leaves the file where it is.
	CollisionSkip Collision = "skip"
)

// Settings tune how the passes behave.
type Settings struct {
	Collision     Collision
	VerifyContent bool // Confirm checksum matches byte for byte before treating files as duplicates
}

// Config is everything an organizer run needs. Settings may be overridden
// before a run starts; call Validate afterwards.
type Config struct {
	Target   string
	Mapping  *Mapping
	Ignored  *IgnoreList
	Settings Settings
}

// Load checks the target directory, then reads and validates the rules
// file. Nothing on disk is modified.
func Load(target, rulesPath string) (*Config, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	rules, err := LoadRules(rulesPath)
	if err != nil {
		return nil, err
	}
	return New(target, rules)
}

// New validates rules against target and builds a Config. A symlinked
// target is resolved so the tree walks start at the real directory.
func New(target string, rules *Rules) (*Config, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return nil, errors.FileOp("cannot resolve target directory", target, errors.FileOperationFailed, err)
	}
	if rules == nil {
		return nil, errors.NewConfigError("invalid configuration", "rules", errors.InvalidConfig, fmt.Errorf("no rules"))
	}

	mapping := NewMapping()
	for _, c := range rules.Categories {
		if err := validateCategory(c.Name); err != nil {
			return nil, err
		}
		for _, ext := range c.Extensions {
			if err := validateExtension(c.Name, ext); err != nil {
				return nil, err
			}
			mapping.Set(ext, filepath.ToSlash(filepath.Clean(c.Name)))
		}
	}

	ignored, err := CompileIgnore(rules.Ignore)
	if err != nil {
		return nil, err
	}

	settings := rules.Settings
	if settings.Collision == "" {
		settings.Collision = CollisionFail
	}
	cfg := &Config{
		Target:   filepath.Clean(resolved),
		Mapping:  mapping,
		Ignored:  ignored,
		Settings: settings,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that can also be changed after loading.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("invalid configuration", "", errors.InvalidConfig, fmt.Errorf("nil config"))
	}
	switch c.Settings.Collision {
	case CollisionFail, CollisionRename, CollisionSkip:
	default:
		return errors.NewConfigError("invalid collision setting", string(c.Settings.Collision), errors.InvalidConfig, nil)
	}
	return nil
}

// Ignores reports whether path matches an ignore pattern by full path,
// path relative to the target, or bare name.
func (c *Config) Ignores(path string) bool {
	rel, err := filepath.Rel(c.Target, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = ""
	}
	return c.Ignored.Match(path, rel, filepath.Base(path))
}

// OthersPath is the folder for files no rule matches.
func (c *Config) OthersPath() string {
	return filepath.Join(c.Target, OthersDir)
}

// DuplicatesPath is the folder duplicate copies are moved into.
func (c *Config) DuplicatesPath() string {
	return filepath.Join(c.Target, DuplicatesDir)
}

// CategoryPath is the folder for a category.
func (c *Config) CategoryPath(category string) string {
	return filepath.Join(c.Target, filepath.FromSlash(category))
}

func checkTarget(target string) error {
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewConfigError("target directory does not exist", target, errors.TargetDirectoryMissing, err)
		}
		return errors.FileOp("cannot access target directory", target, errors.FileOperationFailed, err)
	}
	if !info.IsDir() {
		return errors.NewConfigError("target is not a directory", target, errors.TargetDirectoryMissing, nil)
	}
	return nil
}

func validateCategory(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewConfigError("category name is empty", "mapping", errors.InvalidConfig, nil)
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return errors.NewConfigError("category must be relative to the target", name, errors.InvalidConfig, nil)
	}
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(name)))
	if clean == "." {
		return errors.NewConfigError("category name is empty", "mapping", errors.InvalidConfig, nil)
	}
	for _, seg := range strings.Split(clean, "/") {
		if seg == ".." {
			return errors.NewConfigError("category must stay inside the target", name, errors.InvalidConfig, nil)
		}
	}
	if clean == OthersDir || clean == DuplicatesDir {
		return errors.NewConfigError("category name is reserved", name, errors.InvalidConfig, nil)
	}
	return nil
}

func validateExtension(category, ext string) error {
	norm := NormalizeExtension(strings.TrimSpace(ext))
	if norm == "." || norm != NormalizeExtension(ext) {
		return errors.NewConfigError("invalid extension", fmt.Sprintf("%s: %q", category, ext), errors.InvalidConfig, nil)
	}
	if strings.ContainsAny(norm, `/\`) {
		return errors.NewConfigError("extension must not contain a path separator", fmt.Sprintf("%s: %q", category, ext), errors.InvalidConfig, nil)
	}
	return nil
}
