package mirror

import "github.com/dd0wney/cluso-failover/pkg/store"

// Outcome describes how a single mirrored statement was served.
type Outcome struct {
	// Source names the store whose result was returned, or is empty when
	// neither store answered.
	Source string

	// PrimaryErr is set when the primary rejected the statement.
	PrimaryErr error

	// MirrorErr is set when the primary succeeded but the inline apply on
	// the secondary failed.
	MirrorErr error
}

// Degraded reports whether the two stores may now differ.
func (o Outcome) Degraded() bool {
	return o.PrimaryErr != nil || o.MirrorErr != nil
}

// Mirrored reports whether both stores applied the statement.
func (o Outcome) Mirrored() bool {
	return o.Source == store.PrimaryName && o.MirrorErr == nil
}

// Stats are cumulative counters since the coordinator was created.
type Stats struct {
	Queries        uint64 `json:"queries"`
	Mirrored       uint64 `json:"mirrored"`
	MirrorFailures uint64 `json:"mirror_failures"`
	SecondaryOnly  uint64 `json:"secondary_only"`
	Unavailable    uint64 `json:"unavailable"`
}

// Status summarizes the coordinator for observability endpoints.
type Status struct {
	Mode  string `json:"mode"`
	Stats Stats  `json:"stats"`
}
