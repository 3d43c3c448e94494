package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/unclebandit/phishsim/internal/model"
)

// MemoryReportStore is the single-process fallback when Redis is not configured.
type MemoryReportStore struct {
	cache *gocache.Cache
	ttl   time.Duration
}

func NewMemoryReportStore(ttl time.Duration) *MemoryReportStore {
	return &MemoryReportStore{
		cache: gocache.New(ttl, ttl/2),
		ttl:   ttl,
	}
}

func (s *MemoryReportStore) Save(_ context.Context, report *model.DispatchReport) error {
	s.cache.Set(reportKey(report.CampaignID), cloneReport(report), s.ttl)
	return nil
}

func (s *MemoryReportStore) Get(_ context.Context, campaignID int) (*model.DispatchReport, bool, error) {
	v, ok := s.cache.Get(reportKey(campaignID))
	if !ok {
		return nil, false, nil
	}
	return cloneReport(v.(*model.DispatchReport)), true, nil
}

// cloneReport copies the report and its Failures so callers never share
// memory with the cached value.
func cloneReport(report *model.DispatchReport) *model.DispatchReport {
	cp := *report
	cp.Failures = append([]model.DispatchFailure(nil), report.Failures...)
	return &cp
}

var _ ReportStore = (*MemoryReportStore)(nil)
