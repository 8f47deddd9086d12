package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
	"github.com/PrabuPro/restaurant-web-app/internal/repositories"
	"github.com/PrabuPro/restaurant-web-app/pkg/mailer"
)

// resetTokenBytes is the size of the random reset token before hex encoding.
const resetTokenBytes = 20

// AuthService handles registration, login, bearer tokens for API clients
// and the password-reset flow.
type AuthService struct {
	userRepo      repositories.UserRepository
	mail          mailer.Mailer
	jwtSecret     []byte
	tokenDurat    time.Duration // Duration for which a bearer JWT is valid
	resetTokenTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, mail mailer.Mailer, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		mail:          mail,
		jwtSecret:     []byte(jwtSecret),
		tokenDurat:    24 * time.Hour,
		resetTokenTTL: time.Hour,
	}
}

// Register creates a new account with a hashed password.
func (s *AuthService) Register(user *models.User, password string) error {
	if existing, err := s.userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return fmt.Errorf("email '%s': %w", user.Email, ErrEmailTaken)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		// Do not reveal whether the email exists
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser loads a user by ID.
func (s *AuthService) GetUser(id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateAccount changes the user's profile fields.
func (s *AuthService) UpdateAccount(id, name, email string) (*models.User, error) {
	if err := s.userRepo.Update(&models.User{ID: id, Name: name, Email: email}); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.userRepo.GetByID(id)
}

// IssueToken generates a bearer JWT for API clients.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.tokenDurat).Unix(),
		"iat":     time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a bearer JWT, returning the user ID.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("invalid token: missing user_id claim")
	}
	return userID, nil
}

// Forgot issues a password-reset token valid for one hour and emails a
// reset link embedding it. The host is used to build the link.
func (s *AuthService) Forgot(email, host string) error {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNoAccount
		}
		return err
	}

	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)
	expires := time.Now().Add(s.resetTokenTTL)

	if err := s.userRepo.SetResetToken(user.ID, token, expires); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("http://%s/account/reset/%s", host, token)
	if err := s.mail.SendPasswordReset(user.Email, resetURL); err != nil {
		return err
	}
	log.Printf("Password reset issued for user %s", user.ID)
	return nil
}

// ValidateResetToken returns the user holding an unexpired reset token.
func (s *AuthService) ValidateResetToken(token string) (*models.User, error) {
	user, err := s.userRepo.GetByValidResetToken(token, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// ResetPassword re-validates the token (requests are stateless, the earlier
// form render proves nothing), sets the new credential hash and clears the
// token fields in the same update, then returns the user for auto-login.
func (s *AuthService) ResetPassword(token, password string) (*models.User, error) {
	user, err := s.userRepo.GetByValidResetToken(token, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.ResetPassword(user.ID, string(hashedPassword)); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(user.ID)
}
