package fakeuserrepo

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/sso-service/internal/errors"
	"github.com/jrsteele09/sso-service/users"
)

var _ users.Store = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users  map[int64]*users.Principal
	emails map[string]int64 // email to user id
	nextID int64
	lock   sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:  make(map[int64]*users.Principal),
		emails: make(map[string]int64),
	}
}

// Upsert stores a copy of p, assigning an id when p has none.
func (ur *FakeUserRepo) Upsert(p *users.Principal) *users.Principal {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	stored := clone(p)
	if stored.ID == 0 {
		if id, ok := ur.emails[stored.Email]; ok {
			stored.ID = id
		} else {
			ur.nextID++
			stored.ID = ur.nextID
		}
	} else if stored.ID > ur.nextID {
		ur.nextID = stored.ID
	}
	ur.users[stored.ID] = stored
	ur.emails[stored.Email] = stored.ID
	return clone(stored)
}

func (ur *FakeUserRepo) Delete(email string) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if id, ok := ur.emails[email]; ok {
		delete(ur.users, id)
		delete(ur.emails, email)
	}
}

func (ur *FakeUserRepo) FindByEmail(_ context.Context, email string) (*users.Principal, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emails[email]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user %s", email)
	}
	return clone(ur.users[id]), nil
}

func (ur *FakeUserRepo) LinkProviderID(_ context.Context, userID int64, providerID string) (*users.Principal, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	p, ok := ur.users[userID]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user id %d", userID)
	}
	if p.ProviderID == "" {
		p.ProviderID = providerID
	}
	return clone(p), nil
}

func clone(p *users.Principal) *users.Principal {
	cp := *p
	cp.Roles = append([]users.Role(nil), p.Roles...)
	if p.Unit != nil {
		unit := *p.Unit
		cp.Unit = &unit
	}
	return &cp
}
