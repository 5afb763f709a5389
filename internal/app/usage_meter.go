package app

import (
	"context"
	"log"
)

// DefaultUsageCeiling is the number of generation calls an organization may
// make before further chat turns are rejected.
const DefaultUsageCeiling = 100

type usageStore interface {
	IncrementCreditsIfBelow(orgID string, ceiling int) (bool, error)
}

// turnMarker records which turn attempts have already been charged, so a
// retried turn does not pay twice. Implemented on Redis with SET NX.
type turnMarker interface {
	MarkTurnCharged(ctx context.Context, turnID string) (bool, error)
	ClearTurn(ctx context.Context, turnID string) error
}

// UsageMeter enforces the per-organization generation ceiling. The check and
// the increment happen as one conditional update at the storage layer, so
// concurrent turns for the same organization cannot both slip past the
// ceiling.
type UsageMeter struct {
	store   usageStore
	marker  turnMarker
	ceiling int
}

func NewUsageMeter(store usageStore, marker turnMarker, ceiling int) *UsageMeter {
	if ceiling <= 0 {
		ceiling = DefaultUsageCeiling
	}
	return &UsageMeter{store: store, marker: marker, ceiling: ceiling}
}

// CheckAndIncrement charges one credit for the turn, or returns
// ErrUsageLimitExceeded without side effects when the organization is at the
// ceiling. A non-empty turnID makes the charge idempotent per attempt: a
// retry of a turn that already charged reuses the existing increment.
func (m *UsageMeter) CheckAndIncrement(ctx context.Context, orgID, turnID string) error {
	if orgID == "" {
		return ErrInvalidInput
	}

	if m.marker != nil && turnID != "" {
		fresh, err := m.marker.MarkTurnCharged(ctx, turnID)
		if err != nil {
			// Marker storage being down must not block chat; fall through to
			// the plain conditional increment.
			log.Printf("usage turn marker unavailable: %v", err)
		} else if !fresh {
			return nil
		}
	}

	allowed, err := m.store.IncrementCreditsIfBelow(orgID, m.ceiling)
	if err != nil {
		// The marker claims a charge that never happened; release it so a
		// retry is metered instead of passing for free.
		m.clearMarker(ctx, turnID)
		return err
	}
	if !allowed {
		m.clearMarker(ctx, turnID)
		return ErrUsageLimitExceeded
	}
	return nil
}

func (m *UsageMeter) clearMarker(ctx context.Context, turnID string) {
	if m.marker != nil && turnID != "" {
		_ = m.marker.ClearTurn(ctx, turnID)
	}
}
