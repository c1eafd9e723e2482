package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionRepo_Counts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepo(db)

	mock.ExpectQuery(`FROM subscriptions WHERE channel_id=\?`).
		WithArgs("chan").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
	mock.ExpectQuery(`FROM subscriptions WHERE subscriber_id=\?$`).
		WithArgs("chan").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectQuery(`FROM subscriptions WHERE subscriber_id=\? AND channel_id=\?`).
		WithArgs("viewer", "chan").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	ctx := context.Background()
	subs, err := repo.CountSubscribers(ctx, "chan")
	require.NoError(t, err)
	require.Equal(t, int64(3), subs)

	to, err := repo.CountSubscribedTo(ctx, "chan")
	require.NoError(t, err)
	require.Equal(t, int64(1), to)

	ok, err := repo.IsSubscribed(ctx, "viewer", "chan")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepo_SubscribeAndUnsubscribe(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSubscriptionRepo(db)

	mock.ExpectExec(`INSERT INTO subscriptions`).WithArgs("viewer", "chan").
		WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectExec(`DELETE FROM subscriptions`).WithArgs("viewer", "chan").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.ErrorIs(t, repo.Subscribe(ctx, "viewer", "chan"), ErrConflict)
	removed, err := repo.Unsubscribe(ctx, "viewer", "chan")
	require.NoError(t, err)
	require.True(t, removed)
}
