package types

import "time"

// Pass identifies one of the reorganization passes.
type Pass string

const (
	// SortPass moves files into their category folders.
	SortPass Pass = "sort"
	// DedupePass moves duplicate content into the Duplicates folder.
	DedupePass Pass = "dedupe"
	// PrunePass removes empty directories.
	PrunePass Pass = "prune"
)

// Move records one completed relocation.
type Move struct {
	Pass            Pass   `json:"pass"`
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
	Size            int64  `json:"size"`
}

// Report collects the outcome of a run, in completion order.
type Report struct {
	RunID       string    `json:"run_id"`
	Target      string    `json:"target"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	Scanned     int       `json:"scanned"`
	Moves       []Move    `json:"moves,omitempty"`
	RemovedDirs []string  `json:"removed_dirs,omitempty"`
}

// MovesFor returns the moves made by pass p.
func (r *Report) MovesFor(p Pass) []Move {
	var out []Move
	for _, m := range r.Moves {
		if m.Pass == p {
			out = append(out, m)
		}
	}
	return out
}

// DuplicateBytes is the total size of content moved into Duplicates.
func (r *Report) DuplicateBytes() int64 {
	var total int64
	for _, m := range r.MovesFor(DedupePass) {
		total += m.Size
	}
	return total
}
