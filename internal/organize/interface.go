package organize

import "dirtidy/pkg/types"

// Runner runs organizer passes over a scanned tree.
// This allows the watcher to be driven by a fake in tests.
type Runner interface {
	Run(p Passes) (*types.Report, error)
}

// Ensure Organizer implements the Runner interface
var _ Runner = (*Organizer)(nil)
