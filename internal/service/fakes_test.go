package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/vidtube-accounts/internal/media"
	"github.com/iliyamo/vidtube-accounts/internal/model"
	"github.com/iliyamo/vidtube-accounts/internal/queue"
	"github.com/iliyamo/vidtube-accounts/internal/repository"
)

// memAccounts is an in-memory AccountStore and RefreshStore. The refresh
// swap runs under the mutex, like the conditional UPDATE it stands in for.
type memAccounts struct {
	mu       sync.Mutex
	byID     map[string]*model.Account
	history  map[string][]string
	setErr   error
	createFn func(a *model.Account) error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[string]*model.Account{}, history: map[string][]string{}}
}

func (m *memAccounts) put(a *model.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.byID[a.ID] = &cp
}

func (m *memAccounts) get(id string) *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

func (m *memAccounts) Create(_ context.Context, a *model.Account) error {
	if m.createFn != nil {
		if err := m.createFn(a); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.UserName == a.UserName || o.Email == a.Email {
			return repository.ErrConflict
		}
	}
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) GetByID(_ context.Context, id string) (*model.Account, error) {
	if a := m.get(id); a != nil {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memAccounts) GetByUserName(_ context.Context, userName string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.UserName == userName {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAccounts) FindByLogin(_ context.Context, userName, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if (userName != "" && a.UserName == userName) || (email != "" && a.Email == email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAccounts) ExistsByUserNameOrEmail(_ context.Context, userName, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if strings.EqualFold(a.UserName, userName) || strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAccounts) SetRefreshTokenHash(_ context.Context, id string, hash *string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if hash == nil {
		a.RefreshTokenHash = nil
	} else {
		h := *hash
		a.RefreshTokenHash = &h
	}
	return nil
}

func (m *memAccounts) SwapRefreshTokenHash(_ context.Context, id, oldHash, newHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || a.RefreshTokenHash == nil || *a.RefreshTokenHash != oldHash {
		return false, nil
	}
	a.RefreshTokenHash = &newHash
	return true, nil
}

func (m *memAccounts) update(id string, fn func(a *model.Account) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := fn(a); err != nil {
		return err
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memAccounts) UpdatePassword(_ context.Context, id, hash string) error {
	return m.update(id, func(a *model.Account) error { a.PasswordHash = hash; return nil })
}

func (m *memAccounts) UpdateProfile(_ context.Context, id, fullName, email string) error {
	return m.update(id, func(a *model.Account) error {
		for _, o := range m.byID {
			if o.ID != id && o.Email == email {
				return repository.ErrConflict
			}
		}
		a.FullName, a.Email = fullName, email
		return nil
	})
}

func (m *memAccounts) UpdateAvatar(_ context.Context, id, url, publicID string) error {
	return m.update(id, func(a *model.Account) error { a.AvatarURL, a.AvatarPublicID = url, publicID; return nil })
}

func (m *memAccounts) UpdateCoverImage(_ context.Context, id, url, publicID string) error {
	return m.update(id, func(a *model.Account) error { a.CoverImageURL, a.CoverImagePublicID = url, publicID; return nil })
}

func (m *memAccounts) AppendWatchHistory(_ context.Context, accountID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[accountID] = append(m.history[accountID], videoID)
	return nil
}

type memSubs struct {
	mu   sync.Mutex
	rels map[[2]string]bool
}

func newMemSubs() *memSubs { return &memSubs{rels: map[[2]string]bool{}} }

func (m *memSubs) CountSubscribers(_ context.Context, channelID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.rels {
		if k[1] == channelID {
			n++
		}
	}
	return n, nil
}

func (m *memSubs) CountSubscribedTo(_ context.Context, subscriberID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.rels {
		if k[0] == subscriberID {
			n++
		}
	}
	return n, nil
}

func (m *memSubs) IsSubscribed(_ context.Context, subscriberID, channelID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rels[[2]string{subscriberID, channelID}], nil
}

func (m *memSubs) Subscribe(_ context.Context, subscriberID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]string{subscriberID, channelID}
	if m.rels[k] {
		return repository.ErrConflict
	}
	m.rels[k] = true
	return nil
}

func (m *memSubs) Unsubscribe(_ context.Context, subscriberID, channelID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]string{subscriberID, channelID}
	if !m.rels[k] {
		return false, nil
	}
	delete(m.rels, k)
	return true, nil
}

// memVideos resolves history from the account store's recorded ids.
type memVideos struct {
	accounts *memAccounts
	videos   map[string]model.VideoSummary
}

func (m *memVideos) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.videos[id]
	return ok, nil
}

func (m *memVideos) WatchHistory(_ context.Context, accountID string) ([]model.VideoSummary, error) {
	m.accounts.mu.Lock()
	ids := append([]string(nil), m.accounts.history[accountID]...)
	m.accounts.mu.Unlock()
	out := []model.VideoSummary{}
	for _, id := range ids {
		out = append(out, m.videos[id])
	}
	return out, nil
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) Verify(h, p string) bool { return h == "hashed:"+p }

type memMedia struct {
	mu        sync.Mutex
	n         int
	uploadErr map[string]error // by file name
	deleted   []string
	deleteErr error
}

func (m *memMedia) Upload(_ context.Context, f *media.File) (media.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.uploadErr[f.Name]; err != nil {
		return media.Asset{}, err
	}
	m.n++
	id := fmt.Sprintf("img%d", m.n)
	return media.Asset{URL: "http://cdn.test/images/" + id + ".jpg", PublicID: id}, nil
}

func (m *memMedia) Delete(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, publicID)
	return m.deleteErr
}

type memEvents struct {
	mu     sync.Mutex
	events []queue.AccountEvent
	err    error
}

func (m *memEvents) Publish(_ context.Context, ev queue.AccountEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *memEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, ev := range m.events {
		out = append(out, ev.Type)
	}
	return out
}

func imageFile(name string) *media.File {
	return &media.File{Name: name, ContentType: "image/jpeg", Size: 3, Body: strings.NewReader("jpg")}
}

var errBoom = errors.New("boom")
