// Package service holds the account business rules. Services speak in
// *apperror.Error values; repository sentinels and library errors are
// translated here and never reach the HTTP layer as-is.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/vidtube-accounts/internal/apperror"
	"github.com/iliyamo/vidtube-accounts/internal/media"
	"github.com/iliyamo/vidtube-accounts/internal/model"
	"github.com/iliyamo/vidtube-accounts/internal/queue"
	"github.com/iliyamo/vidtube-accounts/internal/repository"
)

type AccountStore interface {
	Create(ctx context.Context, a *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByUserName(ctx context.Context, userName string) (*model.Account, error)
	FindByLogin(ctx context.Context, userName, email string) (*model.Account, error)
	ExistsByUserNameOrEmail(ctx context.Context, userName, email string) (bool, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateProfile(ctx context.Context, id, fullName, email string) error
	UpdateAvatar(ctx context.Context, id, url, publicID string) error
	UpdateCoverImage(ctx context.Context, id, url, publicID string) error
	AppendWatchHistory(ctx context.Context, accountID, videoID string) error
}

type SubscriptionStore interface {
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
	Subscribe(ctx context.Context, subscriberID, channelID string) error
	Unsubscribe(ctx context.Context, subscriberID, channelID string) (bool, error)
}

type VideoStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	WatchHistory(ctx context.Context, accountID string) ([]model.VideoSummary, error)
}

// Hasher hashes and verifies account secrets.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// Tokens is the part of TokenService the account flows need.
type Tokens interface {
	Issue(ctx context.Context, accountID string) (TokenPair, error)
	Invalidate(ctx context.Context, accountID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AccountEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, queue.AccountEvent) error { return nil }

// CleanupPolicy says whether the previous remote image is deleted after a
// successful replacement, per slot.
type CleanupPolicy struct {
	Avatar bool
	Cover  bool
}

type AccountOptions struct {
	Cleanup CleanupPolicy
	Events  EventPublisher // nil disables events
	Log     *zap.Logger
}

type AccountService struct {
	accounts AccountStore
	subs     SubscriptionStore
	videos   VideoStore
	tokens   Tokens
	hasher   Hasher
	media    media.Store
	cleanup  CleanupPolicy
	events   EventPublisher
	log      *zap.Logger
}

func NewAccountService(accounts AccountStore, subs SubscriptionStore, videos VideoStore,
	tokens Tokens, hasher Hasher, store media.Store, opts AccountOptions) *AccountService {
	if opts.Events == nil {
		opts.Events = noopPublisher{}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &AccountService{
		accounts: accounts,
		subs:     subs,
		videos:   videos,
		tokens:   tokens,
		hasher:   hasher,
		media:    store,
		cleanup:  opts.Cleanup,
		events:   opts.Events,
		log:      opts.Log,
	}
}

type RegisterInput struct {
	FullName string
	Email    string
	UserName string
	Password string
}

type LoginInput struct {
	UserName string
	Email    string
	Password string
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register creates an account with a mandatory avatar and an optional cover
// image. A failed cover upload leaves the cover empty rather than failing the
// registration.
func (s *AccountService) Register(ctx context.Context, in RegisterInput, avatar, cover *media.File) (*model.PublicAccount, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalize(in.Email)
	userName := normalize(in.UserName)
	if fullName == "" || email == "" || userName == "" || strings.TrimSpace(in.Password) == "" {
		return nil, apperror.BadRequest("all fields are required")
	}

	taken, err := s.accounts.ExistsByUserNameOrEmail(ctx, userName, email)
	if err != nil {
		return nil, apperror.Internal("something went wrong while registering the user", err)
	}
	if taken {
		return nil, apperror.Conflict("user with email or username already exists")
	}
	if avatar == nil {
		return nil, apperror.BadRequest("avatar file is required")
	}

	avatarAsset, err := s.media.Upload(ctx, avatar)
	if err != nil {
		return nil, uploadError("avatar", err)
	}
	uploaded := []string{avatarAsset.PublicID}

	var coverAsset media.Asset
	if cover != nil {
		coverAsset, err = s.media.Upload(ctx, cover)
		if err != nil {
			s.log.Warn("cover image upload failed, continuing without it", zap.Error(err))
			coverAsset = media.Asset{}
		} else {
			uploaded = append(uploaded, coverAsset.PublicID)
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.discard(ctx, uploaded)
		return nil, apperror.Internal("something went wrong while registering the user", err)
	}

	acc := &model.Account{
		ID:                 uuid.NewString(),
		UserName:           userName,
		Email:              email,
		FullName:           fullName,
		PasswordHash:       hash,
		AvatarURL:          avatarAsset.URL,
		AvatarPublicID:     avatarAsset.PublicID,
		CoverImageURL:      coverAsset.URL,
		CoverImagePublicID: coverAsset.PublicID,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		s.discard(ctx, uploaded)
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperror.Conflict("user with email or username already exists")
		}
		return nil, apperror.Internal("something went wrong while registering the user", err)
	}

	s.publish(ctx, queue.NewAccountEvent(queue.EventRegistered, acc.ID, acc.UserName, acc.Email))
	return acc.Public(), nil
}

// Login checks credentials and issues a new token pair. A wrong password
// issues nothing and leaves the stored refresh token untouched.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*model.PublicAccount, TokenPair, error) {
	userName := normalize(in.UserName)
	email := normalize(in.Email)
	if userName == "" && email == "" {
		return nil, TokenPair{}, apperror.BadRequest("username or email is required")
	}

	acc, err := s.accounts.FindByLogin(ctx, userName, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, apperror.NotFound("user does not exist")
		}
		return nil, TokenPair{}, apperror.Internal("something went wrong while logging in", err)
	}
	if !s.hasher.Verify(acc.PasswordHash, in.Password) {
		return nil, TokenPair{}, apperror.Unauthorized("invalid user credentials")
	}

	pair, err := s.tokens.Issue(ctx, acc.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return acc.Public(), pair, nil
}

func (s *AccountService) Logout(ctx context.Context, accountID string) error {
	if err := s.tokens.Invalidate(ctx, accountID); err != nil {
		return err
	}
	s.publish(ctx, queue.NewAccountEvent(queue.EventLoggedOut, accountID, "", ""))
	return nil
}

// ChangePassword replaces the secret hash after checking the old password.
// Existing tokens stay valid.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperror.BadRequest("new password is required")
	}
	acc, err := s.load(ctx, accountID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(acc.PasswordHash, oldPassword) {
		return apperror.BadRequest("invalid old password")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperror.Internal("something went wrong while changing the password", err)
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, hash); err != nil {
		return s.storeError(err)
	}
	s.publish(ctx, queue.NewAccountEvent(queue.EventPasswordChanged, acc.ID, acc.UserName, ""))
	return nil
}

func (s *AccountService) Current(ctx context.Context, accountID string) (*model.PublicAccount, error) {
	acc, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return acc.Public(), nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, accountID, fullName, email string) (*model.PublicAccount, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalize(email)
	if fullName == "" || email == "" {
		return nil, apperror.BadRequest("all fields are required")
	}
	if err := s.accounts.UpdateProfile(ctx, accountID, fullName, email); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperror.Conflict("email is already in use")
		}
		return nil, s.storeError(err)
	}
	return s.Current(ctx, accountID)
}

type imageSlot struct {
	name    string
	cleanup bool
	prev    func(*model.Account) (url, publicID string)
	update  func(ctx context.Context, id, url, publicID string) error
}

func (s *AccountService) ReplaceAvatar(ctx context.Context, accountID string, file *media.File) (*model.PublicAccount, error) {
	return s.replaceImage(ctx, accountID, file, imageSlot{
		name:    "avatar",
		cleanup: s.cleanup.Avatar,
		prev:    func(a *model.Account) (string, string) { return a.AvatarURL, a.AvatarPublicID },
		update:  s.accounts.UpdateAvatar,
	})
}

func (s *AccountService) ReplaceCoverImage(ctx context.Context, accountID string, file *media.File) (*model.PublicAccount, error) {
	return s.replaceImage(ctx, accountID, file, imageSlot{
		name:    "cover image",
		cleanup: s.cleanup.Cover,
		prev:    func(a *model.Account) (string, string) { return a.CoverImageURL, a.CoverImagePublicID },
		update:  s.accounts.UpdateCoverImage,
	})
}

// replaceImage uploads first, then points the account at the new asset, and
// only then removes the previous one if the slot's cleanup policy allows.
func (s *AccountService) replaceImage(ctx context.Context, accountID string, file *media.File, slot imageSlot) (*model.PublicAccount, error) {
	if file == nil {
		return nil, apperror.BadRequest(slot.name + " file is missing")
	}
	acc, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	prevURL, prevID := slot.prev(acc)

	asset, err := s.media.Upload(ctx, file)
	if err != nil {
		return nil, uploadError(slot.name, err)
	}
	if err := slot.update(ctx, accountID, asset.URL, asset.PublicID); err != nil {
		s.discard(ctx, []string{asset.PublicID})
		return nil, s.storeError(err)
	}

	if slot.cleanup {
		if prevID == "" {
			prevID = media.PublicIDFromURL(prevURL)
		}
		if prevID != "" && prevID != asset.PublicID {
			if err := s.media.Delete(ctx, prevID); err != nil {
				s.log.Warn("failed to delete previous image",
					zap.String("slot", slot.name), zap.String("public_id", prevID), zap.Error(err))
			}
		}
	}
	return s.Current(ctx, accountID)
}

// ChannelProfile looks up a channel by user name and annotates it with
// subscription counts and whether viewerID subscribes to it.
func (s *AccountService) ChannelProfile(ctx context.Context, viewerID, userName string) (*model.ChannelProfile, error) {
	target, err := s.channel(ctx, userName)
	if err != nil {
		return nil, err
	}
	subscribers, err := s.subs.CountSubscribers(ctx, target.ID)
	if err != nil {
		return nil, s.storeError(err)
	}
	subscribedTo, err := s.subs.CountSubscribedTo(ctx, target.ID)
	if err != nil {
		return nil, s.storeError(err)
	}
	isSubscribed := false
	if viewerID != "" {
		if isSubscribed, err = s.subs.IsSubscribed(ctx, viewerID, target.ID); err != nil {
			return nil, s.storeError(err)
		}
	}
	return &model.ChannelProfile{
		FullName:                  target.FullName,
		UserName:                  target.UserName,
		SubscribersCount:          subscribers,
		ChannelsSubscribedToCount: subscribedTo,
		IsSubscribed:              isSubscribed,
		Avatar:                    target.AvatarURL,
		CoverImage:                target.CoverImageURL,
		Email:                     target.Email,
	}, nil
}

// ToggleSubscription subscribes viewerID to the channel, or unsubscribes if
// already subscribed, and reports the resulting state.
func (s *AccountService) ToggleSubscription(ctx context.Context, viewerID, userName string) (bool, error) {
	target, err := s.channel(ctx, userName)
	if err != nil {
		return false, err
	}
	if target.ID == viewerID {
		return false, apperror.BadRequest("cannot subscribe to your own channel")
	}
	removed, err := s.subs.Unsubscribe(ctx, viewerID, target.ID)
	if err != nil {
		return false, s.storeError(err)
	}
	if removed {
		return false, nil
	}
	if err := s.subs.Subscribe(ctx, viewerID, target.ID); err != nil && !errors.Is(err, repository.ErrConflict) {
		return false, s.storeError(err)
	}
	return true, nil
}

// WatchHistory returns the watched videos in the order they were recorded.
func (s *AccountService) WatchHistory(ctx context.Context, accountID string) ([]model.VideoSummary, error) {
	if _, err := s.load(ctx, accountID); err != nil {
		return nil, err
	}
	history, err := s.videos.WatchHistory(ctx, accountID)
	if err != nil {
		return nil, s.storeError(err)
	}
	return history, nil
}

func (s *AccountService) RecordWatch(ctx context.Context, accountID, videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return apperror.BadRequest("video id is required")
	}
	ok, err := s.videos.Exists(ctx, videoID)
	if err != nil {
		return s.storeError(err)
	}
	if !ok {
		return apperror.NotFound("video does not exist")
	}
	if err := s.accounts.AppendWatchHistory(ctx, accountID, videoID); err != nil {
		return s.storeError(err)
	}
	return nil
}

func (s *AccountService) channel(ctx context.Context, userName string) (*model.Account, error) {
	userName = normalize(userName)
	if userName == "" {
		return nil, apperror.BadRequest("username is missing")
	}
	acc, err := s.accounts.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("channel does not exist")
		}
		return nil, s.storeError(err)
	}
	return acc, nil
}

// load fetches the authenticated account. A token for an account that no
// longer exists is treated as an invalid token.
func (s *AccountService) load(ctx context.Context, accountID string) (*model.Account, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized(msgInvalidAccess)
		}
		return nil, s.storeError(err)
	}
	return acc, nil
}

func (s *AccountService) storeError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.Unauthorized(msgInvalidAccess)
	}
	return apperror.Internal("internal server error", err)
}

func (s *AccountService) discard(ctx context.Context, publicIDs []string) {
	for _, id := range publicIDs {
		if err := s.media.Delete(ctx, id); err != nil {
			s.log.Warn("failed to delete orphaned upload", zap.String("public_id", id), zap.Error(err))
		}
	}
}

func (s *AccountService) publish(ctx context.Context, ev queue.AccountEvent) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("account event not published", zap.String("event", ev.Type), zap.Error(err))
	}
}

func uploadError(slot string, err error) error {
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return apperror.BadRequest(slot + " file is too large")
	case errors.Is(err, media.ErrNotImage):
		return apperror.BadRequest(slot + " file must be an image")
	case errors.Is(err, media.ErrEmptyFile):
		return apperror.BadRequest(slot + " file is empty")
	default:
		return &apperror.Error{Kind: apperror.KindBadRequest, Message: "error while uploading " + slot, Err: err}
	}
}
