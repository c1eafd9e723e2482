package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/vidtube-accounts/internal/apperror"
	"github.com/iliyamo/vidtube-accounts/internal/model"
	"github.com/iliyamo/vidtube-accounts/internal/repository"
	"github.com/iliyamo/vidtube-accounts/internal/utils"
)

const (
	msgInvalidRefresh = "invalid refresh token"
	msgRefreshUsed    = "refresh token is expired or used"
	msgInvalidAccess  = "invalid access token"
)

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// RefreshStore is the persistence the token service needs: read an account
// and write its refresh digest, either unconditionally or as a swap.
type RefreshStore interface {
	GetByID(ctx context.Context, id string) (*model.Account, error)
	SetRefreshTokenHash(ctx context.Context, id string, hash *string) error
	SwapRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) (bool, error)
}

type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// TokenService mints, rotates and revokes access/refresh token pairs. Only
// the SHA-256 digest of the latest refresh token is stored per account, so
// each account has at most one live refresh token.
type TokenService struct {
	store RefreshStore
	cfg   TokenConfig
}

func NewTokenService(store RefreshStore, cfg TokenConfig) *TokenService {
	return &TokenService{store: store, cfg: cfg}
}

func (s *TokenService) mint(accountID string) (TokenPair, error) {
	access, err := utils.NewToken(s.cfg.AccessSecret, accountID, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewToken(s.cfg.RefreshSecret, accountID, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		AccessExp:    access.Exp,
		RefreshExp:   refresh.Exp,
	}, nil
}

// Issue mints a fresh pair for accountID and records its refresh token,
// replacing whatever was stored before.
func (s *TokenService) Issue(ctx context.Context, accountID string) (TokenPair, error) {
	pair, err := s.mint(accountID)
	if err != nil {
		return TokenPair{}, apperror.Internal("something went wrong while generating tokens", err)
	}
	hash := utils.HashToken(pair.RefreshToken)
	if err := s.store.SetRefreshTokenHash(ctx, accountID, &hash); err != nil {
		return TokenPair{}, apperror.Internal("something went wrong while generating tokens", err)
	}
	return pair, nil
}

// Rotate exchanges a valid, current refresh token for a new pair. The
// presented token stops working once Rotate succeeds; of two concurrent
// rotations of the same token at most one succeeds.
func (s *TokenService) Rotate(ctx context.Context, presented string) (TokenPair, error) {
	accountID, err := utils.ParseToken(s.cfg.RefreshSecret, presented)
	if err != nil {
		return TokenPair{}, apperror.Unauthorized(msgInvalidRefresh)
	}
	acc, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, apperror.Unauthorized(msgInvalidRefresh)
		}
		return TokenPair{}, apperror.Internal("something went wrong while refreshing tokens", err)
	}
	oldHash := utils.HashToken(presented)
	if acc.RefreshTokenHash == nil || *acc.RefreshTokenHash != oldHash {
		return TokenPair{}, apperror.Unauthorized(msgRefreshUsed)
	}

	pair, err := s.mint(accountID)
	if err != nil {
		return TokenPair{}, apperror.Internal("something went wrong while generating tokens", err)
	}
	swapped, err := s.store.SwapRefreshTokenHash(ctx, accountID, oldHash, utils.HashToken(pair.RefreshToken))
	if err != nil {
		return TokenPair{}, apperror.Internal("something went wrong while refreshing tokens", err)
	}
	if !swapped {
		return TokenPair{}, apperror.Unauthorized(msgRefreshUsed)
	}
	return pair, nil
}

// Invalidate clears the stored refresh digest. Calling it again, or for an
// account that no longer exists, is a no-op.
func (s *TokenService) Invalidate(ctx context.Context, accountID string) error {
	if err := s.store.SetRefreshTokenHash(ctx, accountID, nil); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperror.Internal("something went wrong while logging out", err)
	}
	return nil
}

// VerifyAccess returns the account id carried by a valid access token.
func (s *TokenService) VerifyAccess(token string) (string, error) {
	id, err := utils.ParseToken(s.cfg.AccessSecret, token)
	if err != nil {
		return "", apperror.Unauthorized(msgInvalidAccess)
	}
	return id, nil
}
