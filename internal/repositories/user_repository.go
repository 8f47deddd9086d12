package repositories

import (
	"time"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	Update(user *models.User) error

	// SetResetToken stores a fresh password-reset token and its expiry.
	SetResetToken(userID, token string, expires time.Time) error
	// GetByValidResetToken finds the user holding the token, provided the
	// token has not expired as of now.
	GetByValidResetToken(token string, now time.Time) (*models.User, error)
	// ResetPassword sets the new credential hash and clears the reset token
	// and expiry in the same update.
	ResetPassword(userID, passwordHash string) error

	// ToggleHeart adds the store to the user's heart set if absent, removes
	// it if present, and returns the user with the updated set loaded.
	ToggleHeart(userID, storeID string) (*models.User, error)
}
