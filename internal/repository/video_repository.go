package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/vidtube-accounts/internal/model"
)

// VideoRepo reads the `videos` table. Videos are owned by accounts and are
// only referenced here through watch history.
type VideoRepo struct{ DB *sql.DB }

func NewVideoRepo(db *sql.DB) *VideoRepo { return &VideoRepo{DB: db} }

func (r *VideoRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos WHERE id=?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("count videos: %w", err)
	}
	return n > 0, nil
}

// WatchHistory resolves the account's watch history, in the order it was
// recorded, to video summaries with a condensed owner view.
func (r *VideoRepo) WatchHistory(ctx context.Context, accountID string) ([]model.VideoSummary, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT v.id, v.title, v.description, v.video_file_url, v.thumbnail_url,
		       v.duration_seconds, v.views, v.is_published, v.created_at,
		       o.full_name, o.user_name, o.avatar_url
		  FROM watch_history w
		  JOIN videos v   ON v.id = w.video_id
		  JOIN accounts o ON o.id = v.owner_id
		 WHERE w.account_id = ?
		 ORDER BY w.position ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	out := []model.VideoSummary{}
	for rows.Next() {
		var v model.VideoSummary
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.VideoFile, &v.Thumbnail,
			&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt,
			&v.Owner.FullName, &v.Owner.UserName, &v.Owner.Avatar); err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
