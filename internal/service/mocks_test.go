package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appErrors "github.com/unclebandit/phishsim/internal/errors"
	"github.com/unclebandit/phishsim/internal/mailer"
	"github.com/unclebandit/phishsim/internal/model"
	"github.com/unclebandit/phishsim/internal/repository"
)

// memStore is an in-memory campaigns + results store.
type memStore struct {
	mu        sync.Mutex
	campaigns []*model.Campaign
	results   []*model.Result
	failWith  error
}

var (
	_ repository.CampaignRepositoryInterface = (*memStore)(nil)
	_ repository.ResultRepositoryInterface   = (*memStore)(nil)
)

func (m *memStore) CreateWithResults(_ context.Context, c *model.Campaign, recipients []string, next func() string) ([]model.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	c.ID = len(m.campaigns) + 1
	c.CreatedAt = time.Now()
	cp := *c
	m.campaigns = append(m.campaigns, &cp)

	out := make([]model.Result, 0, len(recipients))
	for _, email := range recipients {
		r := &model.Result{
			ID:          len(m.results) + 1,
			CampaignID:  c.ID,
			TrackingID:  next(),
			TargetEmail: email,
			SentAt:      time.Now(),
		}
		m.results = append(m.results, r)
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.campaigns {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (m *memStore) List(_ context.Context) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Campaign, 0, len(m.campaigns))
	for i := len(m.campaigns) - 1; i >= 0; i-- {
		cp := *m.campaigns[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) ListByCampaign(_ context.Context, campaignID int) ([]model.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Result{}
	for _, r := range m.results {
		if r.CampaignID == campaignID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) MarkEvent(_ context.Context, kind model.EventKind, trackingID string, at time.Time) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, false, m.failWith
	}
	for _, r := range m.results {
		if r.TrackingID != trackingID {
			continue
		}
		var field **time.Time
		switch kind {
		case model.EventOpen:
			field = &r.OpenedAt
		case model.EventClick:
			field = &r.ClickedAt
		case model.EventSubmit:
			field = &r.SubmittedAt
		default:
			return 0, false, fmt.Errorf("unknown event kind %q", kind)
		}
		if *field != nil {
			return 0, false, nil
		}
		t := at
		*field = &t
		return r.CampaignID, true, nil
	}
	return 0, false, nil
}

func (m *memStore) result(trackingID string) *model.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.results {
		if r.TrackingID == trackingID {
			cp := *r
			return &cp
		}
	}
	return nil
}

// mockMailer records every message and fails for addresses in reject.
type mockMailer struct {
	mu     sync.Mutex
	sent   []mailer.Message
	reject map[string]bool
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reject[msg.To] {
		return errors.New("550 mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockPublisher struct {
	mu     sync.Mutex
	topics []string
	events []model.TrackingEvent
	err    error
}

func (p *mockPublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, payload.(model.TrackingEvent))
	return nil
}

type mockReports struct {
	mu      sync.Mutex
	reports map[int]*model.DispatchReport
}

func (r *mockReports) Save(ctx context.Context, report *model.DispatchReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reports == nil {
		r.reports = map[int]*model.DispatchReport{}
	}
	r.reports[report.CampaignID] = report
	return nil
}

func (r *mockReports) Get(_ context.Context, id int) (*model.DispatchReport, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[id]
	return rep, ok, nil
}
