package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/phishsim/internal/model"
	"github.com/unclebandit/phishsim/internal/repository"
)

func newResultMock(t *testing.T) (*repository.ResultRepository, sqlmock.Sqlmock) {
	t.Helper()
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return repository.NewResultRepository(pool), mock
}

func TestMarkEvent_FirstOccurrenceIsRecorded(t *testing.T) {
	repo, mock := newResultMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE results SET opened_at = $1 WHERE tracking_id = $2 AND opened_at IS NULL`)).
		WithArgs(sqlmock.AnyArg(), "tok").
		WillReturnRows(sqlmock.NewRows([]string{"campaign_id"}).AddRow(5))

	campaignID, recorded, err := repo.MarkEvent(context.Background(), model.EventOpen, "tok", time.Now())
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.Equal(t, 5, campaignID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkEvent_RepeatOrUnknownTokenIsNoop(t *testing.T) {
	repo, mock := newResultMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE results SET submitted_at = $1 WHERE tracking_id = $2 AND submitted_at IS NULL`)).
		WithArgs(sqlmock.AnyArg(), "missing").
		WillReturnRows(sqlmock.NewRows([]string{"campaign_id"}))

	_, recorded, err := repo.MarkEvent(context.Background(), model.EventSubmit, "missing", time.Now())
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkEvent_ClickColumn(t *testing.T) {
	repo, mock := newResultMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SET clicked_at = $1`)).
		WillReturnError(errors.New("db down"))

	_, _, err := repo.MarkEvent(context.Background(), model.EventClick, "tok", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record click")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkEvent_RejectsUnknownKind(t *testing.T) {
	repo, mock := newResultMock(t)

	_, _, err := repo.MarkEvent(context.Background(), model.EventKind("forward"), "tok", time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByCampaign_ScansNullableTimestamps(t *testing.T) {
	repo, mock := newResultMock(t)
	now := time.Now()

	mock.ExpectQuery("FROM results").
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "tracking_id", "target_email", "sent_at", "opened_at", "clicked_at", "submitted_at"}).
			AddRow(1, 9, "t1", "a@x.com", now, now, nil, nil).
			AddRow(2, 9, "t2", "b@x.com", now, nil, now, now))

	results, err := repo.ListByCampaign(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotNil(t, results[0].OpenedAt)
	assert.Nil(t, results[0].ClickedAt)
	assert.Nil(t, results[1].OpenedAt)
	assert.NotNil(t, results[1].SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
