package db

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
        id            BIGSERIAL PRIMARY KEY,
        name          TEXT NOT NULL,
        template_name TEXT NOT NULL,
        target_emails TEXT NOT NULL,
        created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS results (
        id            BIGSERIAL PRIMARY KEY,
        campaign_id   BIGINT NOT NULL REFERENCES campaigns(id),
        tracking_id   TEXT NOT NULL UNIQUE,
        target_email  TEXT NOT NULL,
        sent_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        opened_at     TIMESTAMPTZ NULL,
        clicked_at    TIMESTAMPTZ NULL,
        submitted_at  TIMESTAMPTZ NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_results_campaign_id ON results (campaign_id)`,
}

// EnsureSchema creates the campaigns and results tables when absent.
// Safe to run any number of times.
func EnsureSchema(ctx context.Context, q Execer) error {
	for i, stmt := range schemaStatements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
