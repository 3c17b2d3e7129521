package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/workbench/internal/fingerprint"
	"github.com/danieljhkim/workbench/internal/ledger"
)

// Status reports which facets changed since the latest snapshot.
//
// With a snapshot, a facet is unstaged when its current fingerprint differs
// from the snapshot's. Without one, a facet is unstaged when it is not
// empty, so a fresh project reports code as unstaged while untouched
// environment and files facets report clean.
func (e *Engine) Status(ctx context.Context) (*StatusResult, error) {
	p, err := e.loadProject()
	if err != nil {
		return nil, err
	}

	current, err := e.sessions.Current()
	if err != nil {
		return nil, fmt.Errorf("failed to load current session: %w", err)
	}

	set, err := e.fingerprints.All()
	if err != nil {
		return nil, err
	}

	result := &StatusResult{Project: p, Session: current}

	l, err := e.readLedger(ctx)
	if err != nil {
		return nil, err
	}
	if l != nil {
		defer func() {
			_ = l.Close()
		}()

		if result.Latest, err = l.Latest(ctx); err != nil {
			return nil, err
		}
		if result.LatestUser, err = l.LatestByOrigin(ctx, ledger.OriginUser); err != nil {
			return nil, err
		}
		if result.LatestAuto, err = l.LatestByOrigin(ctx, ledger.OriginAuto); err != nil {
			return nil, err
		}
	}

	baseline := fingerprint.Set{
		Code:        fingerprint.Empty,
		Environment: fingerprint.Empty,
		Files:       fingerprint.Empty,
	}
	if result.Latest != nil {
		baseline = result.Latest.Fingerprints()
	}

	result.Code = compare(fingerprint.FacetCode, set, baseline)
	result.Environment = compare(fingerprint.FacetEnvironment, set, baseline)
	result.Files = compare(fingerprint.FacetFiles, set, baseline)
	return result, nil
}

func compare(facet fingerprint.Facet, current, baseline fingerprint.Set) FacetStatus {
	cur := current.Get(facet)
	base := baseline.Get(facet)
	return FacetStatus{
		Facet:    facet,
		Current:  cur,
		Baseline: base,
		Unstaged: cur != base,
	}
}

// ListSnapshots returns ledger entries in creation order. A non-empty
// sessionID restricts the result to that session.
func (e *Engine) ListSnapshots(ctx context.Context, sessionID string) ([]ledger.Snapshot, error) {
	if _, err := e.loadProject(); err != nil {
		return nil, err
	}

	l, err := e.readLedger(ctx)
	if err != nil || l == nil {
		return nil, err
	}
	defer func() {
		_ = l.Close()
	}()

	return l.List(ctx, sessionID)
}
