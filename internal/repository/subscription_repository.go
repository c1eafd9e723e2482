package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SubscriptionRepo answers the social-graph questions asked by the channel
// profile page. Each count is its own query rather than one aggregate.
type SubscriptionRepo struct{ DB *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{DB: db} }

// CountSubscribers returns how many accounts subscribe to channelID.
func (r *SubscriptionRepo) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM subscriptions WHERE channel_id=?", channelID)
}

// CountSubscribedTo returns how many channels subscriberID subscribes to.
func (r *SubscriptionRepo) CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM subscriptions WHERE subscriber_id=?", subscriberID)
}

func (r *SubscriptionRepo) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	n, err := r.count(ctx,
		"SELECT COUNT(*) FROM subscriptions WHERE subscriber_id=? AND channel_id=?", subscriberID, channelID)
	return n > 0, err
}

// Subscribe inserts the relationship; ErrConflict if it already exists.
func (r *SubscriptionRepo) Subscribe(ctx context.Context, subscriberID, channelID string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO subscriptions (subscriber_id, channel_id) VALUES (?,?)", subscriberID, channelID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Unsubscribe removes the relationship and reports whether one existed.
func (r *SubscriptionRepo) Unsubscribe(ctx context.Context, subscriberID, channelID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE subscriber_id=? AND channel_id=?", subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SubscriptionRepo) count(ctx context.Context, q string, args ...any) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}
