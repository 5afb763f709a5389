package app

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axel-advisor/internal/model"
)

func TestUsageMeterChargesUntilCeiling(t *testing.T) {
	store := newMemOrgStore(&model.Organization{ID: "org-1", CreditsUsed: 98})
	meter := NewUsageMeter(store, nil, 100)

	require.NoError(t, meter.CheckAndIncrement(context.Background(), "org-1", ""))
	require.NoError(t, meter.CheckAndIncrement(context.Background(), "org-1", ""))
	assert.Equal(t, 100, store.credits("org-1"))

	err := meter.CheckAndIncrement(context.Background(), "org-1", "")
	assert.ErrorIs(t, err, ErrUsageLimitExceeded)
	assert.Equal(t, 100, store.credits("org-1"))
}

func TestUsageMeterConcurrentAtCeiling(t *testing.T) {
	store := newMemOrgStore(&model.Organization{ID: "org-1", CreditsUsed: 99})
	meter := NewUsageMeter(store, nil, 100)

	const attempts = 32
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- meter.CheckAndIncrement(context.Background(), "org-1", "")
		}()
	}
	wg.Wait()
	close(results)

	var allowed, denied int
	for err := range results {
		switch {
		case err == nil:
			allowed++
		default:
			require.ErrorIs(t, err, ErrUsageLimitExceeded)
			denied++
		}
	}
	assert.Equal(t, 1, allowed)
	assert.Equal(t, attempts-1, denied)
	assert.Equal(t, 100, store.credits("org-1"))
}

func TestUsageMeterTurnIdempotency(t *testing.T) {
	store := newMemOrgStore(&model.Organization{ID: "org-1"})
	marker := newMemTurnMarker()
	meter := NewUsageMeter(store, marker, 100)

	require.NoError(t, meter.CheckAndIncrement(context.Background(), "org-1", "turn-1"))
	require.NoError(t, meter.CheckAndIncrement(context.Background(), "org-1", "turn-1"))
	assert.Equal(t, 1, store.credits("org-1"), "retried turn must not charge twice")

	require.NoError(t, meter.CheckAndIncrement(context.Background(), "org-1", "turn-2"))
	assert.Equal(t, 2, store.credits("org-1"))
}

func TestUsageMeterDenialClearsMarker(t *testing.T) {
	store := newMemOrgStore(&model.Organization{ID: "org-1", CreditsUsed: 100})
	marker := newMemTurnMarker()
	meter := NewUsageMeter(store, marker, 100)

	err := meter.CheckAndIncrement(context.Background(), "org-1", "turn-1")
	require.ErrorIs(t, err, ErrUsageLimitExceeded)
	assert.False(t, marker.claimed["turn-1"], "denied turn must not stay claimed")
}

type failOnceStore struct {
	inner    *memOrgStore
	failures int
}

func (s *failOnceStore) IncrementCreditsIfBelow(orgID string, ceiling int) (bool, error) {
	if s.failures > 0 {
		s.failures--
		return false, errBoom
	}
	return s.inner.IncrementCreditsIfBelow(orgID, ceiling)
}

func TestUsageMeterStoreErrorReleasesMarker(t *testing.T) {
	store := &failOnceStore{inner: newMemOrgStore(&model.Organization{ID: "org-1"}), failures: 1}
	marker := newMemTurnMarker()
	meter := NewUsageMeter(store, marker, 100)

	err := meter.CheckAndIncrement(context.Background(), "org-1", "turn-1")
	require.ErrorIs(t, err, errBoom)
	assert.False(t, marker.claimed["turn-1"], "a charge that never happened must not stay claimed")

	require.NoError(t, meter.CheckAndIncrement(context.Background(), "org-1", "turn-1"))
	assert.Equal(t, 1, store.inner.credits("org-1"), "the retried turn is charged, not waved through")
}

func TestUsageMeterMarkerFailureStillCharges(t *testing.T) {
	store := newMemOrgStore(&model.Organization{ID: "org-1"})
	marker := newMemTurnMarker()
	marker.err = fmt.Errorf("marker store down")
	meter := NewUsageMeter(store, marker, 100)

	require.NoError(t, meter.CheckAndIncrement(context.Background(), "org-1", "turn-1"))
	assert.Equal(t, 1, store.credits("org-1"))
}

func TestUsageMeterRejectsEmptyOrg(t *testing.T) {
	meter := NewUsageMeter(newMemOrgStore(), nil, 100)
	assert.ErrorIs(t, meter.CheckAndIncrement(context.Background(), "", ""), ErrInvalidInput)
}
