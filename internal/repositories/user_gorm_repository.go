package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID, with the heart set loaded.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Hearts").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// Update saves changes to an existing user.
func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Model(user).Updates(map[string]interface{}{
		"name":  user.Name,
		"email": user.Email,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update user %s: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s for update: %w", user.ID, ErrNotFound)
	}
	return nil
}

// SetResetToken stores a password-reset token and expiry on the user.
func (r *GORMUserRepository) SetResetToken(userID, token string, expires time.Time) error {
	res := r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"reset_password_token":   token,
		"reset_password_expires": expires,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to set reset token for user %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s for reset token: %w", userID, ErrNotFound)
	}
	return nil
}

// GetByValidResetToken finds the user holding an unexpired reset token.
func (r *GORMUserRepository) GetByValidResetToken(token string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.db.
		Where("reset_password_token = ? AND reset_password_token <> ''", token).
		Where("reset_password_expires > ?", now).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("valid reset token: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up reset token: %w", err)
	}
	return &user, nil
}

// ResetPassword sets the new credential hash and clears the token fields in
// a single UPDATE, so the token cannot be consumed twice.
func (r *GORMUserRepository) ResetPassword(userID, passwordHash string) error {
	res := r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password":               passwordHash,
		"reset_password_token":   "",
		"reset_password_expires": nil,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to reset password for user %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s for password reset: %w", userID, ErrNotFound)
	}
	return nil
}

// ToggleHeart flips the store's membership in the user's heart set inside a
// transaction and returns the user with the updated set.
func (r *GORMUserRepository) ToggleHeart(userID, storeID string) (*models.User, error) {
	var user models.User
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Hearts").First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user with ID %s: %w", userID, ErrNotFound)
			}
			return err
		}
		var store models.Store
		if err := tx.First(&store, "id = ?", storeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("store with ID %s: %w", storeID, ErrNotFound)
			}
			return err
		}

		assoc := tx.Model(&user).Association("Hearts")
		if user.HasHearted(storeID) {
			if err := assoc.Delete(&store); err != nil {
				return fmt.Errorf("failed to remove heart: %w", err)
			}
		} else {
			if err := assoc.Append(&store); err != nil {
				return fmt.Errorf("failed to add heart: %w", err)
			}
		}

		user.Hearts = nil
		return tx.Preload("Hearts").First(&user, "id = ?", userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
