// Package session holds the authenticated principal and exposes
// role-derived queries. Absence of identity is a normal, representable
// state: every query on a logged-out store returns the "no access"
// answer rather than an error.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

const (
	// storageKey is the fixed key the session snapshot is persisted under.
	storageKey = "auth.session"

	snapshotVersion = 1
)

// snapshot is the persisted shape of a Store. The version tag guards
// against silent breakage of older persisted snapshots on field changes.
type snapshot struct {
	Version      int        `json:"v"`
	Principal    *user.User `json:"principal,omitempty"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
}

// Store owns at most one authenticated principal at a time, plus its
// access and refresh tokens. It persists a snapshot of its full state
// after each mutation; writes are fire-and-forget.
type Store struct {
	mu sync.RWMutex
	kv core.KVStore

	principal    *user.User
	accessToken  string
	refreshToken string
}

// NewStore creates a Store, restoring any previously persisted snapshot.
// An absent or unparsable snapshot yields the empty, unauthenticated state.
func NewStore(kv core.KVStore) *Store {
	s := &Store{kv: kv}
	s.load()
	return s
}

func (s *Store) load() {
	blob, err := s.kv.Get(context.Background(), storageKey)
	if err != nil {
		return
	}
	var snap snapshot
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return
	}
	if snap.Version != snapshotVersion {
		snap = migrate(snap)
	}
	s.principal = snap.Principal
	s.accessToken = snap.AccessToken
	s.refreshToken = snap.RefreshToken
}

// migrate upgrades an older snapshot shape to the current version.
// There is a single version so far; unknown versions reset to empty.
func migrate(snap snapshot) snapshot {
	return snapshot{Version: snapshotVersion}
}

// persist must be called with the write lock held.
func (s *Store) persist() {
	snap := snapshot{
		Version:      snapshotVersion,
		Principal:    s.principal,
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_ = s.kv.Set(context.Background(), storageKey, string(data))
}

// Login replaces all session fields wholesale. Repeated identical calls
// are idempotent.
func (s *Store) Login(accessToken, refreshToken string, principal user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.principal = &principal
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.persist()
}

// Logout clears all session fields. Safe to call when already logged out.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.principal = nil
	s.accessToken = ""
	s.refreshToken = ""
	s.persist()
}

// SetPrincipal replaces only the principal (eg. after a profile-edit
// round trip); tokens and the authenticated state are untouched.
func (s *Store) SetPrincipal(principal user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.principal = &principal
	s.persist()
}

// Principal returns the current principal, if any.
func (s *Store) Principal() (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.principal == nil {
		return user.User{}, false
	}
	return *s.principal, true
}

// Authenticated is true iff a principal and an access token are both present.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal != nil && s.accessToken != ""
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *Store) HasRole(role user.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.principal == nil {
		return false
	}
	return s.principal.HasRole(role)
}

func (s *Store) HasAnyRole(roles ...user.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.principal == nil {
		return false
	}
	return s.principal.HasAnyRole(roles...)
}

func (s *Store) HasPermission(perm string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.principal == nil {
		return false
	}
	return s.principal.HasPermission(perm)
}

// PrimaryRole resolves the principal's highest-authority role; with no
// principal it returns the same lowest-authority fallback as
// user.PrimaryRole(nil).
func (s *Store) PrimaryRole() user.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.principal == nil {
		return user.PrimaryRole(nil)
	}
	return s.principal.PrimaryRole()
}
