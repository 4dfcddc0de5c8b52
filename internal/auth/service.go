package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	usercontroller "github.com/guardpost/guardpost/internal/db/controller/user"
	"github.com/guardpost/guardpost/internal/db/models"
)

// Service provides authentication functionality: credential validation,
// registration and password changes.
type Service struct {
	db     *gorm.DB
	tokens *TokenService
}

// NewService creates a new auth service.
func NewService(db *gorm.DB, tokens *TokenService) *Service {
	return &Service{db: db, tokens: tokens}
}

// Login validates credentials and issues an access token.
//
// The returned error is ErrInvalidCredentials both for an unknown email
// and for a wrong password, and ErrAccountDeactivated for a known but
// inactive account.
func (s *Service) Login(email, password string) (*models.User, string, error) {
	user, err := usercontroller.GetByEmail(s.db, email)
	if errors.Is(err, usercontroller.ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}

	if err != nil {
		return nil, "", fmt.Errorf("failed to query user: %w", err)
	}

	if !user.IsActive {
		return nil, "", ErrAccountDeactivated
	}

	if !user.VerifyPassword(password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Sign(s.PrincipalFor(user))
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	return user, token, nil
}

// PrincipalFor computes the claim set for a user: identity plus the
// flattened permission set across all of the user's roles.
func (s *Service) PrincipalFor(user *models.User) *Principal {
	return &Principal{
		UserID:      user.ID,
		Email:       user.Email,
		Roles:       user.RoleNames(),
		Permissions: user.PermissionNames(),
	}
}

// Register creates a new user account with a hashed password. The account
// starts active, unverified and without any role.
func (s *Service) Register(email, password, firstName, lastName string) (*models.User, error) {
	hashedPassword, err := models.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:           email,
		Password:        hashedPassword,
		FirstName:       firstName,
		LastName:        lastName,
		IsActive:        true,
		IsEmailVerified: false,
	}

	if err := usercontroller.Create(s.db, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// ValidateSession re-confirms that a token subject still exists and is
// active. It returns (nil, nil) when the user is missing or inactive;
// callers must translate nil into an authentication failure.
func (s *Service) ValidateSession(userID string) (*models.User, error) {
	user, err := usercontroller.GetByID(s.db, userID)
	if errors.Is(err, usercontroller.ErrUserNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.IsActive {
		return nil, nil
	}

	return user, nil
}

// ChangePassword verifies the old password and persists a hash of the new one.
func (s *Service) ChangePassword(userID, oldPassword, newPassword string) error {
	user, err := usercontroller.GetByID(s.db, userID)
	if err != nil {
		return err
	}

	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	hashedPassword, err := models.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return usercontroller.UpdatePassword(s.db, userID, hashedPassword)
}
