package user

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	rolecontroller "github.com/guardpost/guardpost/internal/db/controller/role"
	"github.com/guardpost/guardpost/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.User{}, &models.Role{}, &models.Permission{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := models.User{
		Email:    email,
		Password: "not-a-real-hash",
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)

	return &user
}

func seedRole(t *testing.T, db *gorm.DB, name string) *models.Role {
	t.Helper()

	role := models.Role{Name: name, IsActive: true}
	require.NoError(t, db.Create(&role).Error)

	return &role
}

func TestGetByEmail(t *testing.T) {
	db := setupTestDB(t)

	t.Run("nil database", func(t *testing.T) {
		user, err := GetByEmail(nil, "a@example.com")

		require.ErrorIs(t, err, ErrDBNil)
		assert.Nil(t, user)
	})

	t.Run("not found", func(t *testing.T) {
		user, err := GetByEmail(db, "missing@example.com")

		require.ErrorIs(t, err, ErrUserNotFound)
		assert.Nil(t, user)
	})

	t.Run("found with roles and permissions preloaded", func(t *testing.T) {
		role := models.Role{
			Name:        "reader",
			IsActive:    true,
			Permissions: []models.Permission{{Name: "users:read", IsActive: true}},
		}
		require.NoError(t, db.Create(&role).Error)

		created := models.User{
			Email:    "reader@example.com",
			Password: "not-a-real-hash",
			IsActive: true,
			Roles:    []models.Role{role},
		}
		require.NoError(t, db.Create(&created).Error)

		user, err := GetByEmail(db, "reader@example.com")
		require.NoError(t, err)

		require.Len(t, user.Roles, 1)
		require.Len(t, user.Roles[0].Permissions, 1)
		assert.Equal(t, "users:read", user.Roles[0].Permissions[0].Name)
	})
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)

	user := models.User{Email: "a@example.com", Password: "not-a-real-hash"}
	require.NoError(t, Create(db, &user))
	assert.NotEmpty(t, user.ID)

	t.Run("duplicate email", func(t *testing.T) {
		err := Create(db, &models.User{Email: "a@example.com", Password: "x"})

		require.ErrorIs(t, err, ErrEmailExists)
	})
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	user := seedUser(t, db, "gone@example.com")

	require.NoError(t, Delete(db, user.ID))
	require.ErrorIs(t, Delete(db, user.ID), ErrUserNotFound)
}

func TestAddAndRemoveRole(t *testing.T) {
	db := setupTestDB(t)

	user := seedUser(t, db, "a@example.com")
	role := seedRole(t, db, "reader")

	t.Run("assigns", func(t *testing.T) {
		require.NoError(t, AddRole(db, user.ID, role.ID))

		reloaded, err := GetByID(db, user.ID)
		require.NoError(t, err)

		assert.True(t, reloaded.HasRole("reader"))
	})

	t.Run("assigning twice is rejected", func(t *testing.T) {
		require.ErrorIs(t, AddRole(db, user.ID, role.ID), ErrRoleAlreadyAssigned)
	})

	t.Run("unknown user", func(t *testing.T) {
		require.ErrorIs(t, AddRole(db, "missing-id", role.ID), ErrUserNotFound)
	})

	t.Run("unknown role", func(t *testing.T) {
		err := AddRole(db, user.ID, "missing-id")

		require.ErrorIs(t, err, rolecontroller.ErrRoleNotFound)
	})

	t.Run("removes", func(t *testing.T) {
		require.NoError(t, RemoveRole(db, user.ID, role.ID))

		reloaded, err := GetByID(db, user.ID)
		require.NoError(t, err)

		assert.False(t, reloaded.HasRole("reader"))
	})

	t.Run("removing again is rejected", func(t *testing.T) {
		require.ErrorIs(t, RemoveRole(db, user.ID, role.ID), ErrRoleNotAssigned)
	})
}

func TestList(t *testing.T) {
	db := setupTestDB(t)

	seedUser(t, db, "alice@example.com")
	seedUser(t, db, "bob@example.com")

	carol := seedUser(t, db, "carol@example.com")
	carol.FirstName = "Carol"
	require.NoError(t, Update(db, carol))

	t.Run("all", func(t *testing.T) {
		users, total, err := List(db, "", 10, 0)
		require.NoError(t, err)

		assert.EqualValues(t, 3, total)
		assert.Len(t, users, 3)
	})

	t.Run("search matches email", func(t *testing.T) {
		users, total, err := List(db, "bob", 10, 0)
		require.NoError(t, err)

		assert.EqualValues(t, 1, total)
		require.Len(t, users, 1)
		assert.Equal(t, "bob@example.com", users[0].Email)
	})

	t.Run("search matches first name", func(t *testing.T) {
		users, total, err := List(db, "Carol", 10, 0)
		require.NoError(t, err)

		assert.EqualValues(t, 1, total)
		require.Len(t, users, 1)
		assert.Equal(t, "carol@example.com", users[0].Email)
	})

	t.Run("pagination", func(t *testing.T) {
		users, total, err := List(db, "", 2, 0)
		require.NoError(t, err)

		assert.EqualValues(t, 3, total)
		assert.Len(t, users, 2)
	})
}

func TestSetActiveAndVerifyEmail(t *testing.T) {
	db := setupTestDB(t)

	user := seedUser(t, db, "a@example.com")

	require.NoError(t, SetActive(db, user.ID, false))
	require.NoError(t, VerifyEmail(db, user.ID))

	reloaded, err := GetByID(db, user.ID)
	require.NoError(t, err)

	assert.False(t, reloaded.IsActive)
	assert.True(t, reloaded.IsEmailVerified)

	require.ErrorIs(t, SetActive(db, "missing-id", true), ErrUserNotFound)
	require.ErrorIs(t, VerifyEmail(db, "missing-id"), ErrUserNotFound)
}

func TestUpdatePassword(t *testing.T) {
	db := setupTestDB(t)

	user := seedUser(t, db, "a@example.com")

	require.NoError(t, UpdatePassword(db, user.ID, "new-hash"))

	reloaded, err := GetByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reloaded.Password)

	require.ErrorIs(t, UpdatePassword(db, "missing-id", "x"), ErrUserNotFound)
}
