package engine

import (
	"github.com/danieljhkim/workbench/internal/fingerprint"
	"github.com/danieljhkim/workbench/internal/ledger"
	"github.com/danieljhkim/workbench/internal/project"
	"github.com/danieljhkim/workbench/internal/session"
)

// FacetStatus compares one facet against its baseline.
type FacetStatus struct {
	Facet fingerprint.Facet `json:"facet"`

	// Current is the fingerprint of the facet on disk.
	Current fingerprint.Fingerprint `json:"current"`

	// Baseline is the fingerprint in the latest snapshot, or Empty if
	// there is no snapshot.
	Baseline fingerprint.Fingerprint `json:"baseline"`

	Unstaged bool `json:"unstaged"`
}

// StatusResult represents the current workspace status.
type StatusResult struct {
	Project *project.Project `json:"project"`

	// Session is the current session.
	Session *session.Session `json:"session"`

	Code        FacetStatus `json:"code"`
	Environment FacetStatus `json:"environment"`
	Files       FacetStatus `json:"files"`

	// Latest is the most recent snapshot of any origin; nil if none.
	Latest *ledger.Snapshot `json:"latest,omitempty"`

	// LatestUser is the most recent user-generated snapshot; nil if none.
	LatestUser *ledger.Snapshot `json:"latestUser,omitempty"`

	// LatestAuto is the most recent auto-generated snapshot; nil if none.
	LatestAuto *ledger.Snapshot `json:"latestAuto,omitempty"`
}

// Facets returns the per-facet results in reporting order.
func (r *StatusResult) Facets() []FacetStatus {
	return []FacetStatus{r.Code, r.Environment, r.Files}
}

// Clean reports whether no facet is unstaged.
func (r *StatusResult) Clean() bool {
	return !r.Code.Unstaged && !r.Environment.Unstaged && !r.Files.Unstaged
}
