package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/darasahq/darasa/core/user"
	kvstore "github.com/darasahq/darasa/storage/kv"
)

func newPrincipal(roles ...user.Role) user.User {
	active := true
	return user.User{
		ID:       "c5b0e3cf-98e4-4c19-8c0c-24ec174a2f3a",
		Name:     "Asha M",
		Username: "asha",
		Email:    "asha@test.test",
		IsActive: &active,
		Roles:    roles,
	}
}

func TestLoginLogout(t *testing.T) {
	store := NewStore(kvstore.NewInMem())

	assert.False(t, store.Authenticated())

	store.Login("access", "refresh", newPrincipal(user.RoleTeacher))
	assert.True(t, store.Authenticated())
	assert.Equal(t, "access", store.AccessToken())
	assert.Equal(t, "refresh", store.RefreshToken())

	// idempotent under repeated identical calls
	store.Login("access", "refresh", newPrincipal(user.RoleTeacher))
	assert.True(t, store.Authenticated())

	store.Logout()
	assert.False(t, store.Authenticated())
	assert.Empty(t, store.AccessToken())
	assert.Empty(t, store.RefreshToken())
	_, ok := store.Principal()
	assert.False(t, ok)

	// logout when already logged out is a no-op
	store.Logout()
	assert.False(t, store.Authenticated())
}

func TestRoleQueriesDegradeWithoutPrincipal(t *testing.T) {
	store := NewStore(kvstore.NewInMem())

	assert.False(t, store.HasRole(user.RoleStudent))
	assert.False(t, store.HasAnyRole(user.RoleStudent, user.RoleSuperAdmin))
	assert.False(t, store.HasPermission("fees:read"))
	assert.Equal(t, user.RoleParent, store.PrimaryRole())
}

func TestRoleQueriesAfterLogout(t *testing.T) {
	store := NewStore(kvstore.NewInMem())
	store.Login("access", "refresh", newPrincipal(user.RoleStudent))
	assert.True(t, store.HasRole(user.RoleStudent))

	store.Logout()
	assert.False(t, store.HasRole(user.RoleStudent))
	assert.Equal(t, user.RoleParent, store.PrimaryRole())
}

func TestPrimaryRole(t *testing.T) {
	store := NewStore(kvstore.NewInMem())

	store.Login("access", "refresh", newPrincipal(user.RoleTeacher, user.RoleSuperAdmin))
	assert.Equal(t, user.RoleSuperAdmin, store.PrimaryRole())

	store.Login("access", "refresh", newPrincipal(user.RoleTeacher, user.RoleParent))
	assert.Equal(t, user.RoleTeacher, store.PrimaryRole())
}

func TestSetPrincipalKeepsTokens(t *testing.T) {
	store := NewStore(kvstore.NewInMem())
	store.Login("access", "refresh", newPrincipal(user.RoleTeacher))

	edited := newPrincipal(user.RoleTeacher)
	edited.Name = "Asha Mwangi"
	store.SetPrincipal(edited)

	assert.True(t, store.Authenticated())
	assert.Equal(t, "access", store.AccessToken())
	p, ok := store.Principal()
	assert.True(t, ok)
	assert.Equal(t, "Asha Mwangi", p.Name)
}

func TestSnapshotRoundTrip(t *testing.T) {
	kv := kvstore.NewInMem()

	store := NewStore(kv)
	store.Login("access", "refresh", newPrincipal(user.RoleTeacher, user.RoleSubAdmin))

	restored := NewStore(kv)
	assert.True(t, restored.Authenticated())
	assert.Equal(t, "access", restored.AccessToken())
	assert.True(t, restored.HasRole(user.RoleSubAdmin))
	assert.Equal(t, user.RoleSubAdmin, restored.PrimaryRole())
}

func TestCorruptSnapshotFallsBackToEmpty(t *testing.T) {
	kv := kvstore.NewInMem()
	_ = kv.Set(context.Background(), storageKey, "{not json")

	store := NewStore(kv)
	assert.False(t, store.Authenticated())
}

func TestUnknownSnapshotVersionResets(t *testing.T) {
	kv := kvstore.NewInMem()
	_ = kv.Set(context.Background(), storageKey, `{"v":99,"access_token":"stale"}`)

	store := NewStore(kv)
	assert.False(t, store.Authenticated())
	assert.Empty(t, store.AccessToken())
}
