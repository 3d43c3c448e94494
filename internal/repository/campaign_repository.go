package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/unclebandit/phishsim/internal/db"
	appErrors "github.com/unclebandit/phishsim/internal/errors"
	"github.com/unclebandit/phishsim/internal/model"
)

// maxTrackingIDRetries bounds regeneration after a tracking id collision.
const maxTrackingIDRetries = 3

type CampaignRepositoryInterface interface {
	// CreateWithResults inserts the campaign and one result row per
	// recipient in a single transaction. nextTrackingID is called again
	// for a recipient whose id collides with an existing row.
	CreateWithResults(ctx context.Context, c *model.Campaign, recipients []string, nextTrackingID func() string) ([]model.Result, error)
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	List(ctx context.Context) ([]*model.Campaign, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

func NewCampaignRepository(pool *sql.DB) *CampaignRepository {
	return &CampaignRepository{DB: pool}
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) CreateWithResults(ctx context.Context, c *model.Campaign, recipients []string, nextTrackingID func() string) (results []model.Result, err error) {
	q, err := db.Handle(ctx, r.DB)
	if err != nil {
		return nil, err
	}

	tx, err := q.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin campaign tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
        INSERT INTO campaigns (name, template_name, target_emails)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	if err = tx.QueryRowContext(ctx, query, c.Name, c.TemplateName, c.TargetEmails).Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert campaign: %w", err)
	}

	results = make([]model.Result, 0, len(recipients))
	for _, email := range recipients {
		var res *model.Result
		res, err = insertResult(ctx, tx, c.ID, email, nextTrackingID)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit campaign: %w", err)
	}
	return results, nil
}

// insertResult retries with a fresh tracking id when the insert hits the
// unique constraint. ON CONFLICT keeps the surrounding transaction usable.
func insertResult(ctx context.Context, tx db.DBTX, campaignID int, email string, nextTrackingID func() string) (*model.Result, error) {
	query := `
        INSERT INTO results (campaign_id, tracking_id, target_email)
        VALUES ($1, $2, $3)
        ON CONFLICT (tracking_id) DO NOTHING
        RETURNING id, sent_at
    `
	var res *model.Result
	op := func() error {
		candidate := model.Result{
			CampaignID:  campaignID,
			TrackingID:  nextTrackingID(),
			TargetEmail: email,
		}
		err := tx.QueryRowContext(ctx, query, campaignID, candidate.TrackingID, email).Scan(&candidate.ID, &candidate.SentAt)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.ErrDuplicateTrackingID
		case err != nil:
			return backoff.Permanent(fmt.Errorf("insert result: %w", err))
		}
		res = &candidate
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxTrackingIDRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	q, err := db.Handle(ctx, r.DB)
	if err != nil {
		return nil, err
	}
	query := `
        SELECT id, name, template_name, target_emails, created_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err = q.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.TemplateName, &c.TargetEmails, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return &c, nil
}

// List returns every campaign, newest first.
func (r *CampaignRepository) List(ctx context.Context) ([]*model.Campaign, error) {
	q, err := db.Handle(ctx, r.DB)
	if err != nil {
		return nil, err
	}
	query := `
        SELECT id, name, template_name, target_emails, created_at
        FROM campaigns
        ORDER BY created_at DESC, id DESC
    `
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.Name, &c.TemplateName, &c.TargetEmails, &c.CreatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
