package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/goaltime/goaltime/internal/model"
	"github.com/goaltime/goaltime/internal/utils"
)

var (
	adminActor = model.UserView{ID: 100, Username: "root", Role: model.RoleAdmin, IsActive: true}
	userActor  = model.UserView{ID: 200, Username: "joe", Role: model.RoleUser, IsActive: true}
)

func newUserFixture(t *testing.T) (*UserService, *memDB) {
	t.Helper()
	db := newMemDB()
	return NewUserService(fakeUsers{db}, bcrypt.MinCost), db
}

func createUser(t *testing.T, svc *UserService, username, email string) model.UserView {
	t.Helper()
	v, err := svc.Create(context.Background(), UserInput{
		Username: username, Email: email, Password: "pw", ConfirmPassword: "pw",
	}, adminActor)
	require.NoError(t, err)
	return v
}

func TestUserCreateDefaults(t *testing.T) {
	svc, db := newUserFixture(t)

	v := createUser(t, svc, "ali", "Ali@Example.com")
	assert.Equal(t, model.RoleUser, v.Role)
	assert.True(t, v.IsActive)
	assert.Equal(t, "ali@example.com", v.Email)
	assert.True(t, utils.VerifyPassword(db.users[v.ID].PasswordHash, "pw"))
}

func TestUserCreateRoleRequiresAdmin(t *testing.T) {
	svc, db := newUserFixture(t)

	_, err := svc.Create(context.Background(), UserInput{
		Username: "ali", Email: "ali@example.com", Password: "pw", ConfirmPassword: "pw", Role: "ADMIN",
	}, userActor)
	require.ErrorIs(t, err, ErrAuthz)

	inactive := false
	_, err = svc.Create(context.Background(), UserInput{
		Username: "ali", Email: "ali@example.com", Password: "pw", ConfirmPassword: "pw", IsActive: &inactive,
	}, userActor)
	require.ErrorIs(t, err, ErrAuthz)
	assert.Empty(t, db.users)

	v, err := svc.Create(context.Background(), UserInput{
		Username: "ali", Email: "ali@example.com", Password: "pw", ConfirmPassword: "pw", Role: "admin",
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, v.Role)
}

func TestUserCreateValidation(t *testing.T) {
	svc, _ := newUserFixture(t)
	createUser(t, svc, "ali", "ali@example.com")

	cases := map[string]UserInput{
		"mismatch":  {Username: "a", Email: "a@example.com", Password: "x", ConfirmPassword: "y"},
		"dup email": {Username: "b", Email: "ALI@example.com", Password: "x", ConfirmPassword: "x"},
		"dup name":  {Username: "ali", Email: "c@example.com", Password: "x", ConfirmPassword: "x"},
		"bad role":  {Username: "d", Email: "d@example.com", Password: "x", ConfirmPassword: "x", Role: "MANAGER"},
		"no email":  {Username: "e", Password: "x", ConfirmPassword: "x"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in, adminActor)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUserFind(t *testing.T) {
	svc, _ := newUserFixture(t)
	v := createUser(t, svc, "ali", "ali@example.com")

	got, err := svc.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.Username, got.Username)

	got, err = svc.FindByEmail(context.Background(), " ALI@EXAMPLE.COM ")
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	_, err = svc.FindByID(context.Background(), 999)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "User with ID 999 not found", err.Error())

	_, err = svc.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserUpdateFieldPolicy(t *testing.T) {
	svc, db := newUserFixture(t)
	v := createUser(t, svc, "ali", "ali@example.com")
	self := v
	before := db.users[v.ID]

	_, err := svc.Update(context.Background(), v.ID, model.UserPatch{
		Username: model.Some("renamed"),
		Role:     model.Some(model.RoleAdmin),
	}, self)
	require.ErrorIs(t, err, ErrAuthz)
	assert.Equal(t, "Only admin can update role", err.Error())

	_, err = svc.Update(context.Background(), v.ID, model.UserPatch{IsActive: model.Some(false)}, self)
	require.ErrorIs(t, err, ErrAuthz)
	assert.Equal(t, "Only admin can update is_active", err.Error())

	assert.Equal(t, before, db.users[v.ID])

	got, err := svc.Update(context.Background(), v.ID, model.UserPatch{
		Role:     model.Some("admin"),
		IsActive: model.Some(false),
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.False(t, got.IsActive)
}

func TestUserUpdateFields(t *testing.T) {
	svc, db := newUserFixture(t)
	v := createUser(t, svc, "ali", "ali@example.com")
	createUser(t, svc, "bob", "bob@example.com")

	_, err := svc.Update(context.Background(), v.ID, model.UserPatch{Email: model.Some("BOB@example.com")}, v)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Email already exists", err.Error())

	_, err = svc.Update(context.Background(), v.ID, model.UserPatch{
		Password:        model.Some("new"),
		ConfirmPassword: model.Some("other"),
	}, v)
	require.ErrorIs(t, err, ErrValidation)

	got, err := svc.Update(context.Background(), v.ID, model.UserPatch{
		Email:       model.Some("ali@example.com"),
		Password:    model.Some("new"),
		PhoneNumber: model.Some("0912"),
		BirthDate:   model.Some("1990-01-02"),
	}, v)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(db.users[v.ID].PasswordHash, "new"))
	require.NotNil(t, got.PhoneNumber)
	require.NotNil(t, got.BirthDate)
	assert.Equal(t, "1990-01-02", *got.BirthDate)

	got, err = svc.Update(context.Background(), v.ID, model.UserPatch{
		PhoneNumber: model.Patch[string]{Set: true, Null: true},
		BirthDate:   model.Patch[string]{Set: true, Null: true},
	}, v)
	require.NoError(t, err)
	assert.Nil(t, got.PhoneNumber)
	assert.Nil(t, got.BirthDate)

	_, err = svc.Update(context.Background(), 999, model.UserPatch{}, adminActor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRemove(t *testing.T) {
	svc, db := newUserFixture(t)
	v := createUser(t, svc, "ali", "ali@example.com")

	require.ErrorIs(t, svc.Remove(context.Background(), v.ID, userActor), ErrAuthz)
	assert.Len(t, db.users, 1)

	require.NoError(t, svc.Remove(context.Background(), v.ID, adminActor))
	assert.Empty(t, db.users)

	assert.ErrorIs(t, svc.Remove(context.Background(), v.ID, adminActor), ErrNotFound)
}

func TestUserSearchAndList(t *testing.T) {
	svc, _ := newUserFixture(t)
	createUser(t, svc, "Alice", "alice@example.com")
	createUser(t, svc, "bob", "bob@goal.io")
	_, err := svc.Create(context.Background(), UserInput{
		Username: "carol", Email: "carol@example.com", Password: "pw", ConfirmPassword: "pw", Role: model.RoleAdmin,
	}, adminActor)
	require.NoError(t, err)

	found, err := svc.Search(context.Background(), "ALI")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Alice", found[0].Username)

	found, err = svc.Search(context.Background(), "goal.io")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bob", found[0].Username)

	admins, err := svc.List(context.Background(), model.UserFilter{Role: "admin"})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "carol", admins[0].Username)

	_, err = svc.List(context.Background(), model.UserFilter{Role: "MANAGER"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserViewsNeverCarryHashes(t *testing.T) {
	svc, db := newUserFixture(t)
	v := createUser(t, svc, "ali", "ali@example.com")
	hash := db.users[v.ID].PasswordHash

	all, err := svc.Search(context.Background(), "")
	require.NoError(t, err)
	one, err := svc.FindByID(context.Background(), v.ID)
	require.NoError(t, err)

	for _, out := range []any{v, all, one} {
		b, err := json.Marshal(out)
		require.NoError(t, err)
		assert.NotContains(t, string(b), hash)
		assert.NotContains(t, string(b), "password")
	}
}
