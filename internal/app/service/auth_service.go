package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

const tokenTypeBearer = "Bearer"

// TokenBlacklist revokes access tokens by their jti before they expire.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	IsSeller  bool
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, *util.TokenPair, error)
	ValidateAccessToken(ctx context.Context, token string) (*model.User, *util.Claims, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, userID uint, claims *util.Claims) error
	PurgeExpiredRefreshTokens(ctx context.Context) (int64, error)
}

type authService struct {
	repos         *repository.Repositories
	uow           repository.UnitOfWork
	blacklist     TokenBlacklist
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewAuthService builds the auth service. blacklist may be nil when Redis is disabled.
func NewAuthService(
	repos *repository.Repositories,
	uow repository.UnitOfWork,
	blacklist TokenBlacklist,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		repos:         repos,
		uow:           uow,
		blacklist:     blacklist,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	logger.Info("Attempting user registration", logger.Fields{
		"username": username,
		"email":    email,
	})

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, logger.Fields{
			"username": username,
		})
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsSeller:     input.IsSeller,
	}

	err = s.uow.Do(ctx, func(r *repository.Repositories) error {
		if _, err := r.Users.FindByUsername(ctx, username); err == nil {
			return ErrUsernameAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if _, err := r.Users.FindByEmail(ctx, email); err == nil {
			return ErrEmailAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, ErrUsernameAlreadyExists) || errors.Is(err, ErrEmailAlreadyExists) {
			logger.Warn("Registration rejected", logger.Fields{
				"username": username,
				"reason":   err.Error(),
			})
		}
		return nil, err
	}

	logger.Info("User registered successfully", logger.Fields{
		"user_id":   user.ID,
		"username":  username,
		"is_seller": user.IsSeller,
	})
	return user, nil
}

// Authenticate fails with the same error whether the username or the password is wrong.
func (s *authService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.repos.Users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to look up user", err, logger.Fields{
				"username": username,
			})
			return nil, err
		}
		util.BurnPasswordCheck(password)
		return nil, ErrInvalidCredentials
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*model.User, *util.TokenPair, error) {
	logger.Info("Login attempt", logger.Fields{
		"username": username,
	})

	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("Login failed: invalid credentials", logger.Fields{
				"username": username,
			})
		}
		return nil, nil, err
	}

	var tokens *util.TokenPair
	err = s.uow.Do(ctx, func(r *repository.Repositories) error {
		// One refresh token per user: a new login replaces the previous one.
		if err := r.RefreshTokens.DeleteByUserID(ctx, user.ID); err != nil {
			return err
		}
		var err error
		tokens, err = s.issueTokens(ctx, r, user.ID)
		return err
	})
	if err != nil {
		logger.Error("Failed to issue tokens", err, logger.Fields{
			"user_id": user.ID,
		})
		return nil, nil, err
	}

	logger.Info("User logged in successfully", logger.Fields{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

// issueTokens mints an access token and stores a fresh refresh token through r.
func (s *authService) issueTokens(ctx context.Context, r *repository.Repositories, userID uint) (*util.TokenPair, error) {
	now := s.now()

	access, err := util.GenerateAccessToken(userID, s.jwtSecret, s.accessExpiry, now)
	if err != nil {
		return nil, err
	}

	refresh := &model.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.refreshExpiry),
		CreatedAt: now,
	}
	if err := r.RefreshTokens.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &util.TokenPair{
		AccessToken:           access.Token,
		RefreshToken:          refresh.Token,
		TokenType:             tokenTypeBearer,
		AccessTokenExpiresAt:  access.ExpiresAt,
		RefreshTokenExpiresAt: refresh.ExpiresAt,
	}, nil
}

func (s *authService) ValidateAccessToken(ctx context.Context, token string) (*model.User, *util.Claims, error) {
	claims, err := util.ValidateToken(token, s.jwtSecret, s.now())
	if err != nil {
		return nil, nil, ErrUnauthorized
	}

	if s.blacklist != nil && claims.ID != "" {
		revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			logger.Error("Failed to check token blacklist", err)
			return nil, nil, err
		}
		if revoked {
			return nil, nil, ErrUnauthorized
		}
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, ErrUnauthorized
	}
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}
	return user, claims, nil
}

// Refresh rotates a refresh token. The presented token is consumed on success,
// and deleted on expiry, so it can never be exchanged twice.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	var (
		tokens  *util.TokenPair
		expired bool
	)
	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		stored, err := r.RefreshTokens.FindByToken(ctx, refreshToken)
		if err != nil {
			return notFoundAs(err, ErrInvalidRefreshToken)
		}

		if err := r.RefreshTokens.DeleteByToken(ctx, stored.Token); err != nil {
			return notFoundAs(err, ErrInvalidRefreshToken)
		}
		if stored.Expired(s.now()) {
			// Commit the deletion and report the expiry afterwards.
			expired = true
			return nil
		}

		if _, err := r.Users.FindByID(ctx, stored.UserID); err != nil {
			return notFoundAs(err, ErrUnauthorized)
		}

		tokens, err = s.issueTokens(ctx, r, stored.UserID)
		return err
	})
	if err != nil {
		if IsUnauthorized(err) {
			logger.Warn("Refresh rejected", logger.Fields{
				"reason": err.Error(),
			})
		} else {
			logger.Error("Failed to refresh tokens", err)
		}
		return nil, err
	}
	if expired {
		logger.Warn("Refresh rejected", logger.Fields{
			"reason": ErrRefreshTokenExpired.Error(),
		})
		return nil, ErrRefreshTokenExpired
	}
	return tokens, nil
}

// Logout drops the user's refresh token and, when a blacklist is configured,
// revokes the presented access token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, userID uint, claims *util.Claims) error {
	logger.Info("Logging out user", logger.Fields{
		"user_id": userID,
	})

	if err := s.repos.RefreshTokens.DeleteByUserID(ctx, userID); err != nil {
		return err
	}

	if s.blacklist == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, ttl); err != nil {
		logger.Error("Failed to revoke access token", err, logger.Fields{
			"user_id": userID,
		})
		return err
	}
	return nil
}

func (s *authService) PurgeExpiredRefreshTokens(ctx context.Context) (int64, error) {
	purged, err := s.repos.RefreshTokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	logger.Info("Expired refresh tokens purged", logger.Fields{
		"count": purged,
	})
	return purged, nil
}
