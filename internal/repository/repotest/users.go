// Package repotest はテスト用のインメモリ実装。
package repotest

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"ecadmin/internal/domain/model"
	"ecadmin/internal/repository"
)

type Users struct {
	mu   sync.Mutex
	byID map[string]model.User
}

var _ repository.UserRepository = (*Users)(nil)

func NewUsers() *Users {
	return &Users{byID: map[string]model.User{}}
}

// Put はチェックなしで直接入れる（管理者の用意など）
func (r *Users) Put(u model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
}

// Get は保存中の値をそのまま返す（refresh_token確認用）
func (r *Users) Get(id string) (model.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	return u, ok
}

func (r *Users) snapshot() map[string]model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.byID)
}

func (r *Users) restore(byID map[string]model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = byID
}

func (r *Users) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicateUser
		}
	}
	r.byID[user.ID] = *user
	return nil
}

func (r *Users) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *Users) ExistsByEmailOrUsername(ctx context.Context, email, username, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.byID {
		if id == excludeID {
			continue
		}
		if (email != "" && u.Email == email) || (username != "" && u.Username == username) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Users) List(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Users) Update(ctx context.Context, id string, patch repository.UserPatch) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	for oid, o := range r.byID {
		if oid == id {
			continue
		}
		if (patch.Email != nil && o.Email == *patch.Email) || (patch.Username != nil && o.Username == *patch.Username) {
			return nil, repository.ErrDuplicateUser
		}
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	if patch.IsAdmin != nil {
		u.IsAdmin = *patch.IsAdmin
	}
	u.UpdatedAt = time.Now()
	r.byID[id] = u
	return &u, nil
}

func (r *Users) SetRefreshToken(ctx context.Context, id string, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if token != nil {
		t := *token
		u.RefreshToken = &t
	} else {
		u.RefreshToken = nil
	}
	r.byID[id] = u
	return nil
}

func (r *Users) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}
