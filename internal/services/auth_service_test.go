package services_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
	"github.com/PrabuPro/restaurant-web-app/internal/repositories"
	"github.com/PrabuPro/restaurant-web-app/internal/services"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) SetResetToken(userID, token string, expires time.Time) error {
	args := m.Called(userID, token, expires)
	return args.Error(0)
}

func (m *MockUserRepository) GetByValidResetToken(token string, now time.Time) (*models.User, error) {
	args := m.Called(token, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ResetPassword(userID, passwordHash string) error {
	args := m.Called(userID, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) ToggleHeart(userID, storeID string) (*models.User, error) {
	args := m.Called(userID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockMailer is a mock implementation of mailer.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(to, resetURL string) error {
	args := m.Called(to, resetURL)
	return args.Error(0)
}

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockMail := new(MockMailer)
	authService := services.NewAuthService(mockRepo, mockMail, "test_jwt_secret")

	user := &models.User{Name: "Test User", Email: "test@example.com"}

	// Successful registration hashes the password before storing it
	mockRepo.On("GetByEmail", user.Email).Return(nil, fmt.Errorf("user: %w", repositories.ErrNotFound)).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.Register(user, "password123")
	assert.NoError(t, err)
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Email already registered
	mockRepo.On("GetByEmail", user.Email).Return(&models.User{ID: "user-1"}, nil).Once()
	err = authService.Register(&models.User{Name: "Other", Email: user.Email}, "password123")
	assert.ErrorIs(t, err, services.ErrEmailTaken)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockMail := new(MockMailer)
	authService := services.NewAuthService(mockRepo, mockMail, "test_jwt_secret")

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{ID: "user-123", Email: "test@example.com", Password: string(hashedPassword)}

	// Successful login
	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	loggedIn, err := authService.Login(user.Email, "password123")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	// Wrong password
	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	_, err = authService.Login(user.Email, "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Unknown email yields the same outcome as a wrong password
	mockRepo.On("GetByEmail", "nobody@example.com").Return(nil, fmt.Errorf("user: %w", repositories.ErrNotFound)).Once()
	_, err = authService.Login("nobody@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockMail := new(MockMailer)
	authService := services.NewAuthService(mockRepo, mockMail, "test_jwt_secret")

	user := &models.User{ID: "user-123", Email: "test@example.com"}
	token, err := authService.IssueToken(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	// A token signed with another secret is rejected
	other := services.NewAuthService(mockRepo, mockMail, "other_secret")
	otherToken, err := other.IssueToken(user)
	assert.NoError(t, err)
	_, err = authService.ValidateToken(otherToken)
	assert.Error(t, err)
}

func TestAuthService_Forgot(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockMail := new(MockMailer)
	authService := services.NewAuthService(mockRepo, mockMail, "test_jwt_secret")

	user := &models.User{ID: "user-123", Email: "test@example.com"}

	var issuedToken string
	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	mockRepo.On("SetResetToken", user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			issuedToken = args.String(1)
			expires := args.Get(2).(time.Time)
			assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)
		}).Return(nil).Once()
	mockMail.On("SendPasswordReset", user.Email, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			assert.True(t, strings.HasPrefix(args.String(1), "http://example.com/account/reset/"))
		}).Return(nil).Once()

	err := authService.Forgot(user.Email, "example.com")
	assert.NoError(t, err)
	assert.Len(t, issuedToken, 40) // 20 random bytes, hex encoded
	mockRepo.AssertExpectations(t)
	mockMail.AssertExpectations(t)

	// Unknown email outcome is disclosed, and no mail goes out
	mockRepo.On("GetByEmail", "nobody@example.com").Return(nil, fmt.Errorf("user: %w", repositories.ErrNotFound)).Once()
	err = authService.Forgot("nobody@example.com", "example.com")
	assert.ErrorIs(t, err, services.ErrNoAccount)
	mockMail.AssertNumberOfCalls(t, "SendPasswordReset", 1)
}

func TestAuthService_ExpiredResetToken(t *testing.T) {
	userRepo := repositories.NewMockUserRepository()
	authService := services.NewAuthService(userRepo, new(MockMailer), "test_jwt_secret")

	user := &models.User{ID: "user-123", Name: "Wanda", Email: "wanda@example.com"}
	require.NoError(t, userRepo.Create(user))

	// A token expired by one second fails both validation and reset
	require.NoError(t, userRepo.SetResetToken(user.ID, "stale-token", time.Now().Add(-time.Second)))

	_, err := authService.ValidateResetToken("stale-token")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = authService.ResetPassword("stale-token", "newpassword")
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthService_ResetPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockMail := new(MockMailer)
	authService := services.NewAuthService(mockRepo, mockMail, "test_jwt_secret")

	user := &models.User{ID: "user-123", Email: "test@example.com"}

	// Invalid or expired token
	mockRepo.On("GetByValidResetToken", "bad-token", mock.AnythingOfType("time.Time")).
		Return(nil, fmt.Errorf("token: %w", repositories.ErrNotFound)).Once()
	_, err := authService.ResetPassword("bad-token", "newpassword")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Valid token stores a fresh hash and returns the user for auto-login
	mockRepo.On("GetByValidResetToken", "good-token", mock.AnythingOfType("time.Time")).Return(user, nil).Once()
	mockRepo.On("ResetPassword", user.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(args.String(1)), []byte("newpassword")))
		}).Return(nil).Once()
	mockRepo.On("GetByID", user.ID).Return(user, nil).Once()

	reset, err := authService.ResetPassword("good-token", "newpassword")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, reset.ID)
	mockRepo.AssertExpectations(t)
}
