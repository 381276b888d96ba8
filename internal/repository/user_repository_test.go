package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"userdirectory/internal/db"
	"userdirectory/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := db.Open("sqlite", dsn)
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gormDB.AutoMigrate(&model.User{}))
	return gormDB
}

func strPtr(s string) *string { return &s }

func newUser(firstName, email, phone string) *model.User {
	u := &model.User{
		FirstName:      firstName,
		LastName:       "Doe",
		PasswordHash:   "$2a$04$digest",
		Role:           "USER",
		OrganizationID: "Company1",
	}
	if email != "" {
		u.Email = strPtr(email)
	}
	if phone != "" {
		u.Phone = strPtr(phone)
	}
	return u
}

func TestUserRepository_CreateDerivesUserID(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := newUser("jane", "jane@example.com", "1234567890")
	require.NoError(t, repo.Create(ctx, user))

	require.NotZero(t, user.ID)
	assert.Equal(t, fmt.Sprintf("jane%d", user.ID), user.UserID)
	assert.Equal(t, model.StatusEnabled, user.Status)

	stored, err := repo.FindByUserID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.Equal(t, user.UserID, stored.UserID)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("jane", "same@example.com", "1111111111")))
	err := repo.Create(ctx, newUser("john", "same@example.com", "2222222222"))

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserRepository_CreateDuplicatePhone(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("jane", "a@example.com", "1111111111")))
	err := repo.Create(ctx, newUser("john", "b@example.com", "1111111111"))

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserRepository_AbsentContactFieldsDoNotConflict(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("jane", "", "")))
	require.NoError(t, repo.Create(ctx, newUser("john", "", "")))

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserRepository_FindByUserIDNotFound(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.FindByUserID(context.Background(), "nobody1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_UpdateDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("jane", "jane@example.com", "")))
	john := newUser("john", "john@example.com", "")
	require.NoError(t, repo.Create(ctx, john))

	john.Email = strPtr("jane@example.com")
	assert.ErrorIs(t, repo.Update(ctx, john), gorm.ErrDuplicatedKey)
}

func TestUserRepository_UpdatePersistsChanges(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := newUser("jane", "jane@example.com", "")
	require.NoError(t, repo.Create(ctx, user))
	userID := user.UserID

	user.Status = "DISABLED"
	user.LastName = "Smith"
	require.NoError(t, repo.Update(ctx, user))

	stored, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "DISABLED", stored.Status)
	assert.Equal(t, "Smith", stored.LastName)
}

func TestUserRepository_ListInCreationOrder(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	names := []string{"carol", "alice", "bob"}
	for _, name := range names {
		require.NoError(t, repo.Create(ctx, newUser(name, "", "")))
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	for i, name := range names {
		assert.Equal(t, name, users[i].FirstName)
	}
}

func TestUserRepository_CreateDerivedUserIDCollision(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	first := newUser("a1", "", "")
	require.NoError(t, repo.Create(ctx, first))
	require.Equal(t, uint64(1), first.ID)
	require.Equal(t, "a11", first.UserID)

	for i := 0; i < 9; i++ {
		require.NoError(t, repo.Create(ctx, newUser("filler", "", "")))
	}

	err := repo.Create(ctx, newUser("a", "", ""))

	assert.ErrorIs(t, err, model.ErrUserIDTaken)
	assert.NotErrorIs(t, err, gorm.ErrDuplicatedKey)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 10, "the colliding insert is rolled back")

	stored, err := repo.FindByUserID(ctx, "a11")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
}
