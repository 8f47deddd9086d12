package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
// Heart sets are kept as ID sets; loaded Hearts carry only store IDs.
type MockUserRepository struct {
	users  map[string]models.User
	hearts map[string]map[string]bool
	mu     sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[string]models.User),
		hearts: make(map[string]map[string]bool),
	}
}

// Create adds a new user.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %s already registered", user.Email)
		}
	}
	r.users[user.ID] = *user
	return nil
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, u := range r.users {
		if u.Email == email {
			return r.load(id), nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
}

// GetByID returns a user by ID with the heart set loaded.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.users[id]; !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	return r.load(id), nil
}

// load copies the user and materializes the heart set. Callers hold the lock.
func (r *MockUserRepository) load(id string) *models.User {
	user := r.users[id]
	for storeID := range r.hearts[id] {
		user.Hearts = append(user.Hearts, &models.Store{ID: storeID})
	}
	return &user
}

// Update modifies an existing user's profile fields.
func (r *MockUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %s for update: %w", user.ID, ErrNotFound)
	}
	existing.Name = user.Name
	existing.Email = user.Email
	r.users[user.ID] = existing
	return nil
}

// SetResetToken stores a password-reset token and expiry on the user.
func (r *MockUserRepository) SetResetToken(userID, token string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user with ID %s for reset token: %w", userID, ErrNotFound)
	}
	user.ResetPasswordToken = token
	user.ResetPasswordExpires = &expires
	r.users[userID] = user
	return nil
}

// GetByValidResetToken finds the user holding an unexpired reset token.
func (r *MockUserRepository) GetByValidResetToken(token string, now time.Time) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, u := range r.users {
		if u.ResetPasswordToken == token && token != "" &&
			u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now) {
			return r.load(id), nil
		}
	}
	return nil, fmt.Errorf("valid reset token: %w", ErrNotFound)
}

// ResetPassword sets the new credential hash and clears the token fields.
func (r *MockUserRepository) ResetPassword(userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user with ID %s for password reset: %w", userID, ErrNotFound)
	}
	user.Password = passwordHash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil
	r.users[userID] = user
	return nil
}

// ToggleHeart flips the store's membership in the user's heart set.
func (r *MockUserRepository) ToggleHeart(userID, storeID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return nil, fmt.Errorf("user with ID %s: %w", userID, ErrNotFound)
	}
	set := r.hearts[userID]
	if set == nil {
		set = make(map[string]bool)
		r.hearts[userID] = set
	}
	if set[storeID] {
		delete(set, storeID)
	} else {
		set[storeID] = true
	}
	return r.load(userID), nil
}
