package repositories_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
	"github.com/PrabuPro/restaurant-web-app/internal/repositories"
)

func newUserRepo(t *testing.T) *repositories.GORMUserRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Tag{}, &models.Store{}, &models.Review{}))
	return repositories.NewGORMUserRepository(db)
}

func TestGORMUserRepository_ResetTokenExpiry(t *testing.T) {
	repo := newUserRepo(t)

	user := &models.User{Name: "Wanda", Email: "wanda@example.com", Password: "hash"}
	require.NoError(t, repo.Create(user))

	now := time.Now()

	// A token expired by one second is already unusable
	require.NoError(t, repo.SetResetToken(user.ID, "expired-token", now.Add(-time.Second)))
	_, err := repo.GetByValidResetToken("expired-token", now)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// A token inside its window resolves to the user
	require.NoError(t, repo.SetResetToken(user.ID, "live-token", now.Add(time.Hour)))
	found, err := repo.GetByValidResetToken("live-token", now)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	// The same token is dead the moment the window closes
	_, err = repo.GetByValidResetToken("live-token", now.Add(time.Hour+time.Second))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGORMUserRepository_ResetPasswordClearsToken(t *testing.T) {
	repo := newUserRepo(t)

	user := &models.User{Name: "Wanda", Email: "wanda@example.com", Password: "hash"}
	require.NoError(t, repo.Create(user))

	now := time.Now()
	require.NoError(t, repo.SetResetToken(user.ID, "live-token", now.Add(time.Hour)))
	require.NoError(t, repo.ResetPassword(user.ID, "new-hash"))

	// The credential changed and the token was consumed in the same update
	updated, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", updated.Password)
	assert.Empty(t, updated.ResetPasswordToken)
	assert.Nil(t, updated.ResetPasswordExpires)

	_, err = repo.GetByValidResetToken("live-token", now)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
