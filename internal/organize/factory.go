package organize

import (
	"dirtidy/internal/config"
	"dirtidy/internal/log"
)

// Factory builds a Runner over a fresh scan of the tree. Each organizer
// scans only once, so repeated runs need a new one every time.
type Factory func() (Runner, error)

// NewFactory returns a Factory producing real organizers for cfg.
func NewFactory(cfg *config.Config, logger log.Logger) Factory {
	return func() (Runner, error) {
		return New(cfg, logger)
	}
}
