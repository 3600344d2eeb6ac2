package organize_test

import (
	"testing"

	"dirtidy/internal/config"
	"dirtidy/pkg/testutils"

	"github.com/stretchr/testify/require"
)

var (
	writeFile     = testutils.WriteFile
	assertExists  = testutils.AssertExists
	assertMissing = testutils.AssertMissing
)

func newConfig(t *testing.T, target string, rules *config.Rules) *config.Config {
	t.Helper()
	if rules == nil {
		rules = &config.Rules{}
	}
	cfg, err := config.New(target, rules)
	require.NoError(t, err)
	return cfg
}

func imageRules() *config.Rules {
	return &config.Rules{
		Categories: []config.Category{{Name: "Images", Extensions: []string{"jpg", "png"}}},
		Ignore:     []string{"*.tmp"},
	}
}
