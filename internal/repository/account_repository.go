package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/vidtube-accounts/internal/model"
)

const accountColumns = `id, user_name, email, full_name, password_hash,
	avatar_url, avatar_public_id, cover_image_url, cover_image_public_id,
	refresh_token_hash, created_at, updated_at`

// AccountRepo persists accounts. The DSN is opened with clientFoundRows so
// RowsAffected counts matched rows, which lets targeted updates report
// ErrNotFound and makes the refresh-token swap a true compare-and-set.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		a       model.Account
		refresh sql.NullString
	)
	err := row.Scan(&a.ID, &a.UserName, &a.Email, &a.FullName, &a.PasswordHash,
		&a.AvatarURL, &a.AvatarPublicID, &a.CoverImageURL, &a.CoverImagePublicID,
		&refresh, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if refresh.Valid {
		a.RefreshTokenHash = &refresh.String
	}
	return &a, nil
}

// Create inserts a new account. CreatedAt/UpdatedAt are set by the database
// and read back into a.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO accounts (id, user_name, email, full_name, password_hash,
			avatar_url, avatar_public_id, cover_image_url, cover_image_public_id)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		a.ID, a.UserName, a.Email, a.FullName, a.PasswordHash,
		a.AvatarURL, a.AvatarPublicID, a.CoverImageURL, a.CoverImagePublicID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	stored, err := r.GetByID(ctx, a.ID)
	if err != nil {
		return fmt.Errorf("reload account: %w", err)
	}
	a.CreatedAt, a.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id=?", id))
}

func (r *AccountRepo) GetByUserName(ctx context.Context, userName string) (*model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_name=?", userName))
}

// FindByLogin returns the account matching either identifier. Empty
// identifiers are ignored; at least one must be set.
func (r *AccountRepo) FindByLogin(ctx context.Context, userName, email string) (*model.Account, error) {
	var (
		conds []string
		args  []any
	)
	if userName != "" {
		conds = append(conds, "user_name=?")
		args = append(args, userName)
	}
	if email != "" {
		conds = append(conds, "email=?")
		args = append(args, email)
	}
	if len(conds) == 0 {
		return nil, ErrNotFound
	}
	q := "SELECT " + accountColumns + " FROM accounts WHERE " + strings.Join(conds, " OR ") + " LIMIT 1"
	return scanAccount(r.DB.QueryRowContext(ctx, q, args...))
}

// ExistsByUserNameOrEmail reports whether either identifier is taken.
func (r *AccountRepo) ExistsByUserNameOrEmail(ctx context.Context, userName, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE user_name=? OR email=?", userName, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return n > 0, nil
}

// SetRefreshTokenHash overwrites the stored refresh digest; nil clears it.
// Clearing an already-cleared digest is not an error.
func (r *AccountRepo) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	var v sql.NullString
	if hash != nil {
		v = sql.NullString{String: *hash, Valid: true}
	}
	return r.execOne(ctx, "UPDATE accounts SET refresh_token_hash=? WHERE id=?", v, id)
}

// SwapRefreshTokenHash replaces oldHash with newHash only if oldHash is still
// the stored value. It reports false when another writer got there first.
func (r *AccountRepo) SwapRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET refresh_token_hash=? WHERE id=? AND refresh_token_hash=?",
		newHash, id, oldHash)
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *AccountRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.execOne(ctx, "UPDATE accounts SET password_hash=? WHERE id=?", hash, id)
}

func (r *AccountRepo) UpdateProfile(ctx context.Context, id, fullName, email string) error {
	return r.execOne(ctx, "UPDATE accounts SET full_name=?, email=? WHERE id=?", fullName, email, id)
}

func (r *AccountRepo) UpdateAvatar(ctx context.Context, id, url, publicID string) error {
	return r.execOne(ctx, "UPDATE accounts SET avatar_url=?, avatar_public_id=? WHERE id=?", url, publicID, id)
}

func (r *AccountRepo) UpdateCoverImage(ctx context.Context, id, url, publicID string) error {
	return r.execOne(ctx, "UPDATE accounts SET cover_image_url=?, cover_image_public_id=? WHERE id=?", url, publicID, id)
}

// AppendWatchHistory records that accountID watched videoID. Entries are
// ordered by the auto-increment position column.
func (r *AccountRepo) AppendWatchHistory(ctx context.Context, accountID, videoID string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO watch_history (account_id, video_id) VALUES (?,?)", accountID, videoID)
	if err != nil {
		return fmt.Errorf("append watch history: %w", err)
	}
	return nil
}

func (r *AccountRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
