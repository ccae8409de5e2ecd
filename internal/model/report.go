package model

import "time"

// RunSummary describes one completed document run
type RunSummary struct {
	RunID     string         `json:"run_id"`
	Mode      string         `json:"mode"` // normalized or wide
	Document  string         `json:"document"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Rows      map[Entity]int `json:"rows"`
	Files     []string       `json:"files,omitempty"`
	Loaded    int64          `json:"loaded,omitempty"`

	// Reused is set when a batch listed a document that was already converted
	// and the earlier summary is returned instead
	Reused bool `json:"reused,omitempty"`

	// Nodes visited per element type and the peak number of resident input nodes
	Sponsors  int64 `json:"sponsors"`
	Contracts int64 `json:"contracts"`
	Members   int64 `json:"members"`
	Benefits  int64 `json:"benefits"`
	PeakNodes int   `json:"peak_nodes"`
}

// TotalRows sums the row counts of all tables
func (s *RunSummary) TotalRows() int {
	total := 0
	for _, n := range s.Rows {
		total += n
	}
	return total
}
