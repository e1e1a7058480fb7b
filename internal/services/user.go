package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chosei-backend/internal/models"
	"chosei-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

const jwtExpDays = 30

// UserService handles authentication and user profile logic.
// Authentication itself is delegated to the identity provider: this
// service only verifies the provider's access token and upserts the
// user it describes.
type UserService struct {
	userRepo       UserStore
	jwtSecret      string
	providerSecret string
}

// NewUserService creates a new user service
func NewUserService(userRepo UserStore, jwtSecret, providerSecret string) *UserService {
	return &UserService{
		userRepo:       userRepo,
		jwtSecret:      jwtSecret,
		providerSecret: providerSecret,
	}
}

// Identity is the (id, email, name?, avatar?) tuple the identity
// provider supplies after a successful authentication.
type Identity struct {
	ID        string
	Email     string
	Name      *string
	AvatarURL *string
}

// ValidateProviderToken verifies an access token issued by the
// identity provider and extracts the identity it carries.
func (s *UserService) ValidateProviderToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.providerSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse provider token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid provider token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid provider token claims")
	}

	id, ok := claims["sub"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("sub not found in provider token")
	}
	email, _ := claims["email"].(string)

	identity := &Identity{ID: id, Email: email}
	if metadata, ok := claims["user_metadata"].(map[string]interface{}); ok {
		if name, ok := metadata["name"].(string); ok && name != "" {
			identity.Name = &name
		}
		if avatar, ok := metadata["avatar_url"].(string); ok && avatar != "" {
			identity.AvatarURL = &avatar
		}
	}
	return identity, nil
}

// SignIn upserts the user described by the provider identity and
// issues a session token. The user is created on first
// authentication; later sign-ins refresh name and avatar when the
// provider supplies them.
func (s *UserService) SignIn(ctx context.Context, identity *Identity) (*models.User, string, error) {
	user, err := s.userRepo.GetByID(ctx, identity.ID)
	switch {
	case err == nil:
		if identity.Name != nil || identity.AvatarURL != nil {
			if err := s.userRepo.UpdateProfile(ctx, identity.ID, identity.Name, nil, identity.AvatarURL); err != nil {
				return nil, "", fmt.Errorf("failed to refresh user profile: %w", err)
			}
			user, err = s.userRepo.GetByID(ctx, identity.ID)
			if err != nil {
				return nil, "", fmt.Errorf("failed to reload user: %w", err)
			}
		}
	case errors.Is(err, repository.ErrNotFound):
		user = &models.User{
			ID:        identity.ID,
			Email:     identity.Email,
			Name:      identity.Name,
			AvatarURL: identity.AvatarURL,
			CreatedAt: time.Now(),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, "", fmt.Errorf("failed to create user: %w", err)
		}
	default:
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	sessionToken, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return user, sessionToken, nil
}

// GenerateJWT generates a session token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a session token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// GetUser retrieves a user profile
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile updates the user's display fields and returns the
// refreshed profile. Nil fields are left untouched.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, name, bio, avatarURL *string) (*models.User, error) {
	if err := s.userRepo.UpdateProfile(ctx, userID, name, bio, avatarURL); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// UpdatePushToken registers or clears the user's device push token
func (s *UserService) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	return s.userRepo.UpdatePushToken(ctx, userID, pushToken)
}
