package session

import (
	"context"
	"errors"
	"sync"

	"github.com/buywell/storefront/shopapi"
	"github.com/sirupsen/logrus"
)

// ErrNetwork is the unified message for transport-level failures.
// Callers are not meant to distinguish an unreachable remote from a
// rejected request; both surface as a plain message.
var ErrNetwork = errors.New("Network error")

// Remote is the slice of the upstream API the store needs.
type Remote interface {
	Login(ctx context.Context, username, password string) (shopapi.User, error)
	CreateUser(ctx context.Context, nu shopapi.NewUser) (shopapi.User, error)
	UpdateUser(ctx context.Context, id int, up shopapi.UserUpdate) (shopapi.User, error)
	User(ctx context.Context, id int) (shopapi.User, error)
}

// Store holds the current identity and the operations that may change
// it. Construct with New, which restores any persisted identity before
// returning, so dependents never observe a half-initialized store.
type Store struct {
	remote Remote
	keeper Keeper
	log    logrus.FieldLogger

	mu      sync.RWMutex
	current *Identity
	loading bool
	watch   func(context.Context, *Identity)
}

func New(remote Remote, keeper Keeper, log logrus.FieldLogger) *Store {
	s := &Store{
		remote: remote,
		keeper: keeper,
		log:    log,
	}
	s.restore()
	return s
}

// restore loads the persisted identity, if any. It runs synchronously
// inside New; the loading flag is observable only by watchers wired
// later, but kept for parity with Loading readers.
func (s *Store) restore() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	id, ok, err := s.keeper.Load()
	if err != nil {
		s.log.WithField("error", err).Warn("could not restore identity")
	}

	s.mu.Lock()
	if ok {
		s.current = &id
	}
	s.loading = false
	s.mu.Unlock()
}

// Loading reports whether the store is still resolving the persisted
// identity. Dependents defer rendering until it turns false.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Identity{}, false
	}
	return *s.current, true
}

// Watch registers the identity-change listener. It fires after login,
// logout and profile updates, outside the store's lock, with nil when
// the identity was cleared. A single listener is enough: the cart
// store is the only reactive dependent.
func (s *Store) Watch(fn func(context.Context, *Identity)) {
	s.mu.Lock()
	s.watch = fn
	s.mu.Unlock()
}

func (s *Store) notify(ctx context.Context, id *Identity) {
	s.mu.RLock()
	fn := s.watch
	s.mu.RUnlock()
	if fn != nil {
		fn(ctx, id)
	}
}

// Login authenticates against the remote API. On success the returned
// identity becomes current and is persisted. On any failure the
// current identity is left untouched and the error carries the one
// human-readable message the UI shows.
func (s *Store) Login(ctx context.Context, username, password string) (Identity, error) {
	u, err := s.remote.Login(ctx, username, password)
	if err != nil {
		return Identity{}, failure(err, "Login failed")
	}

	id := identityFromUser(u)
	if err := s.keeper.Save(id); err != nil {
		s.log.WithField("error", err).Warn("could not persist identity")
	}

	s.mu.Lock()
	s.current = &id
	s.mu.Unlock()

	s.notify(ctx, &id)
	return id, nil
}

// Register creates a new account. It does not log the user in; the
// caller is expected to send them through Login afterwards.
func (s *Store) Register(ctx context.Context, nu shopapi.NewUser) (shopapi.User, error) {
	u, err := s.remote.CreateUser(ctx, nu)
	if err != nil {
		return shopapi.User{}, failure(err, "Registration failed")
	}
	return u, nil
}

// UpdateProfile pushes a partial update and shallow-merges the fields
// the remote confirms into the current identity: confirmed fields
// overwrite, everything else (notably the token) is retained.
func (s *Store) UpdateProfile(ctx context.Context, id int, up shopapi.UserUpdate) (Identity, error) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil {
		return Identity{}, errors.New("not logged in")
	}

	u, err := s.remote.UpdateUser(ctx, id, up)
	if err != nil {
		return Identity{}, failure(err, "Update failed")
	}

	s.mu.Lock()
	if s.current == nil {
		// Logged out while the update was in flight; the merged
		// record has no identity to attach to.
		s.mu.Unlock()
		return Identity{}, errors.New("not logged in")
	}
	merged := *s.current
	merge(&merged, u)
	s.current = &merged
	s.mu.Unlock()

	if err := s.keeper.Save(merged); err != nil {
		s.log.WithField("error", err).Warn("could not persist identity")
	}

	s.notify(ctx, &merged)
	return merged, nil
}

// Profile fetches the fresh user record for a profile page. It reads
// through to the remote on every call: the detail view shows fields
// the login response does not carry, so the cached identity is not
// enough.
func (s *Store) Profile(ctx context.Context, id int) (shopapi.User, error) {
	u, err := s.remote.User(ctx, id)
	if err != nil {
		return shopapi.User{}, failure(err, "Could not load profile")
	}
	return u, nil
}

// Logout clears the current identity and its persisted copy. It
// cannot fail; a keeper error is logged and the in-memory state is
// cleared regardless.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.keeper.Clear(); err != nil {
		s.log.WithField("error", err).Warn("could not clear persisted identity")
	}

	s.notify(ctx, nil)
}

func identityFromUser(u shopapi.User) Identity {
	return Identity{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Gender:    u.Gender,
		Phone:     u.Phone,
		Image:     u.Image,
		Token:     u.Token,
	}
}

func merge(id *Identity, u shopapi.User) {
	if u.Username != "" {
		id.Username = u.Username
	}
	if u.Email != "" {
		id.Email = u.Email
	}
	if u.FirstName != "" {
		id.FirstName = u.FirstName
	}
	if u.LastName != "" {
		id.LastName = u.LastName
	}
	if u.Gender != "" {
		id.Gender = u.Gender
	}
	if u.Phone != "" {
		id.Phone = u.Phone
	}
	if u.Image != "" {
		id.Image = u.Image
	}
}

// failure folds a remote error into the single failure shape the UI
// consumes: the remote's own message when it sent one, the operation
// fallback for a bare rejection, and the generic network message for
// transport failures.
func failure(err error, fallback string) error {
	var se *shopapi.StatusError
	if errors.As(err, &se) {
		if se.Message != "" {
			return errors.New(se.Message)
		}
		return errors.New(fallback)
	}
	return ErrNetwork
}
