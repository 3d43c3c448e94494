package cache

import (
	"context"
	"fmt"

	"github.com/unclebandit/phishsim/internal/model"
)

// ReportStore keeps the most recent dispatch report per campaign so the
// dashboard can show send outcomes after the redirect.
type ReportStore interface {
	Save(ctx context.Context, report *model.DispatchReport) error
	Get(ctx context.Context, campaignID int) (*model.DispatchReport, bool, error)
}

func reportKey(campaignID int) string {
	return fmt.Sprintf("dispatch:%d", campaignID)
}
