package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// memStore backs the fake repositories. Transactions are driven by sqlmock,
// so writes here are not rolled back; tests assert on what reached it.
//
// LockByID takes a per-user row lock owned by the calling transaction. It is
// released by that transaction's refresh token insert, the last statement of
// a rotation, which stands in for commit.
type memStore struct {
	rowLocks sync.Map // user id -> *sync.Mutex

	mu      sync.Mutex
	held    map[dbx.DBTX]*sync.Mutex
	nextID  int64
	users   map[int64]*models.User
	roles   map[string]*models.Role
	userRol map[int64][]int64
	tokens  []*models.RefreshToken

	createUserErr error
	findTokenErr  error
	creates       int
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[int64]*models.User{},
		roles:   map[string]*models.Role{common.DefaultRoleName: {ID: 1, Name: common.DefaultRoleName}},
		userRol: map[int64][]int64{},
		held:    map[dbx.DBTX]*sync.Mutex{},
		nextID:  100,
	}
}

func (s *memStore) activeTokens(userID int64) []*models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.RefreshToken
	for _, t := range s.tokens {
		if t.UserID == userID && !t.Revoked {
			out = append(out, t)
		}
	}
	return out
}

type memUsers struct {
	s  *memStore
	tx dbx.DBTX
}

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.creates++
	if r.s.createUserErr != nil {
		return nil, r.s.createUserErr
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	r.s.nextID++
	u.ID = r.s.nextID
	u.CreatedAt = time.Unix(1_700_000_000, 0)
	cp := *u
	r.s.users[u.ID] = &cp
	return u, nil
}

func (r memUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return r.withRoles(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.withRoles(u), nil
}

func (r memUsers) LockByID(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	_, ok := r.s.users[id]
	r.s.mu.Unlock()
	if !ok {
		return common.ErrorNotFound
	}

	v, _ := r.s.rowLocks.LoadOrStore(id, &sync.Mutex{})
	row := v.(*sync.Mutex)
	row.Lock()

	r.s.mu.Lock()
	r.s.held[r.tx] = row
	r.s.mu.Unlock()
	return nil
}

func (r memUsers) AddRole(ctx context.Context, userID, roleID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.userRol[userID] = append(r.s.userRol[userID], roleID)
	return nil
}

func (r memUsers) withRoles(u *models.User) *models.User {
	cp := *u
	cp.Roles = []string{}
	for _, id := range r.s.userRol[u.ID] {
		for _, role := range r.s.roles {
			if role.ID == id {
				cp.Roles = append(cp.Roles, role.Name)
			}
		}
	}
	sort.Strings(cp.Roles)
	return &cp
}

type memRoles struct{ s *memStore }

func (r memRoles) GetByName(ctx context.Context, name string) (*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return role, nil
}

type memTokens struct {
	s  *memStore
	tx dbx.DBTX
}

func (r memTokens) Create(ctx context.Context, t *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextID++
	t.ID = r.s.nextID
	cp := *t
	r.s.tokens = append(r.s.tokens, &cp)

	if row, ok := r.s.held[r.tx]; ok {
		delete(r.s.held, r.tx)
		row.Unlock()
	}
	return nil
}

func (r memTokens) FindActive(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findTokenErr != nil {
		return nil, r.s.findTokenErr
	}
	for _, t := range r.s.tokens {
		if t.Token == token && !t.Revoked {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memTokens) DeleteAllForUser(ctx context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.tokens[:0]
	for _, t := range r.s.tokens {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	r.s.tokens = kept
	return nil
}

func (r memTokens) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	kept := r.s.tokens[:0]
	for _, t := range r.s.tokens {
		if t.ExpiredAt(cutoff) {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.s.tokens = kept
	return n, nil
}

type memManager struct{ s *memStore }

func (m memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m memManager) Users(tx dbx.DBTX) users.Repository          { return memUsers{m.s, tx} }
func (m memManager) Roles(dbx.DBTX) roles.Repository             { return memRoles(m) }
func (m memManager) RefreshTokens(tx dbx.DBTX) refreshtokens.Repository {
	return memTokens{m.s, tx}
}

// plainHasher keeps tests fast; bcrypt itself is covered in package password.
type plainHasher struct{}

func (plainHasher) Hash(raw string) (string, error) { return "hashed:" + raw, nil }
func (plainHasher) Verify(raw, hash string) bool    { return hash == "hashed:"+raw }

type fakeLimiter struct {
	mu       sync.Mutex
	blocked  bool
	failures map[string]int
	resets   int
}

func (l *fakeLimiter) Allow(ctx context.Context, key string) error {
	if l.blocked {
		return common.NewKindError(common.ErrRateLimited, "too many attempts")
	}
	return nil
}

func (l *fakeLimiter) Failure(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failures == nil {
		l.failures = map[string]int{}
	}
	l.failures[strings.ToLower(key)]++
	return nil
}

func (l *fakeLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resets++
	return nil
}

type recordedEvent struct {
	event string
	err   error
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *fakeRecorder) RecordAuthEvent(ctx context.Context, event string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event, err})
}
