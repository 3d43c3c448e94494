package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/phishsim/internal/model"
)

func TestMemoryReportStore_SaveAndGet(t *testing.T) {
	store := NewMemoryReportStore(time.Hour)
	ctx := context.Background()

	report := &model.DispatchReport{
		CampaignID: 4, Attempted: 1, Failed: 1,
		Failures: []model.DispatchFailure{{Email: "a@x.com", Reason: "template missing"}},
	}
	require.NoError(t, store.Save(ctx, report))

	// later mutation of the caller's value must not leak into the store
	report.Failures[0].Reason = "changed"

	got, ok, err := store.Get(ctx, 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "template missing", got.Failures[0].Reason)

	_, ok, err = store.Get(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryReportStore_GetReturnsIndependentCopy(t *testing.T) {
	store := NewMemoryReportStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &model.DispatchReport{
		CampaignID: 6, Attempted: 1, Failed: 1,
		Failures: []model.DispatchFailure{{Email: "a@x.com", Reason: "550 mailbox unavailable"}},
	}))

	first, ok, err := store.Get(ctx, 6)
	require.NoError(t, err)
	require.True(t, ok)
	first.Failures[0].Reason = "edited by caller"

	second, ok, err := store.Get(ctx, 6)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "550 mailbox unavailable", second.Failures[0].Reason)
}

func TestMemoryReportStore_Expires(t *testing.T) {
	store := NewMemoryReportStore(20 * time.Millisecond)
	require.NoError(t, store.Save(context.Background(), &model.DispatchReport{CampaignID: 1}))

	time.Sleep(50 * time.Millisecond)

	_, ok, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
