package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unclebandit/phishsim/internal/model"
)

type RedisReportStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisReportStore(rdb *redis.Client, ttl time.Duration) *RedisReportStore {
	return &RedisReportStore{rdb: rdb, ttl: ttl}
}

func (s *RedisReportStore) Save(ctx context.Context, report *model.DispatchReport) error {
	b, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, reportKey(report.CampaignID), b, s.ttl).Err()
}

func (s *RedisReportStore) Get(ctx context.Context, campaignID int) (*model.DispatchReport, bool, error) {
	raw, err := s.rdb.Get(ctx, reportKey(campaignID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var report model.DispatchReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

var _ ReportStore = (*RedisReportStore)(nil)
