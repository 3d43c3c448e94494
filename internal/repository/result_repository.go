package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/unclebandit/phishsim/internal/db"
	"github.com/unclebandit/phishsim/internal/model"
)

// ResultRepositoryInterface defines methods used by the tracking and dashboard services
type ResultRepositoryInterface interface {
	ListByCampaign(ctx context.Context, campaignID int) ([]model.Result, error)
	MarkEvent(ctx context.Context, kind model.EventKind, trackingID string, at time.Time) (campaignID int, recorded bool, err error)
}

// ResultRepository is the concrete implementation
type ResultRepository struct {
	DB *sql.DB
}

func NewResultRepository(pool *sql.DB) *ResultRepository {
	return &ResultRepository{DB: pool}
}

// ListByCampaign fetches every result row of a campaign in creation order
func (r *ResultRepository) ListByCampaign(ctx context.Context, campaignID int) ([]model.Result, error) {
	q, err := db.Handle(ctx, r.DB)
	if err != nil {
		return nil, err
	}
	query := `
        SELECT id, campaign_id, tracking_id, target_email, sent_at, opened_at, clicked_at, submitted_at
        FROM results
        WHERE campaign_id = $1
        ORDER BY id
    `
	rows, err := q.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []model.Result{}
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.ID, &res.CampaignID, &res.TrackingID, &res.TargetEmail,
			&res.SentAt, &res.OpenedAt, &res.ClickedAt, &res.SubmittedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// MarkEvent sets the event's timestamp only if it is still NULL. recorded is
// false when the token is unknown or the event was already recorded.
func (r *ResultRepository) MarkEvent(ctx context.Context, kind model.EventKind, trackingID string, at time.Time) (int, bool, error) {
	column, ok := kind.Column()
	if !ok {
		return 0, false, fmt.Errorf("unknown event kind %q", kind)
	}
	q, err := db.Handle(ctx, r.DB)
	if err != nil {
		return 0, false, err
	}

	query := fmt.Sprintf(
		`UPDATE results SET %[1]s = $1 WHERE tracking_id = $2 AND %[1]s IS NULL RETURNING campaign_id`,
		column,
	)
	var campaignID int
	err = q.QueryRowContext(ctx, query, at, trackingID).Scan(&campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("record %s: %w", kind, err)
	}
	return campaignID, true, nil
}

var _ ResultRepositoryInterface = (*ResultRepository)(nil)
