// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/sculptor/internal/account"
	"github.com/carterperez-dev/sculptor/internal/core"
	"github.com/carterperez-dev/sculptor/internal/credits"
	"github.com/carterperez-dev/sculptor/internal/middleware"
)

var (
	// ErrInvalidCredentials deliberately covers both an unknown username
	// and a wrong password, so error text cannot be used to enumerate
	// accounts.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
)

// BonusJournal records the signup bonus in the credit journal without
// moving any balance.
type BonusJournal interface {
	NoteBonus(ctx context.Context, userID, amount int64, reason string) error
}

type Service struct {
	accounts    account.Repository
	jwt         *JWTManager
	redis       *redis.Client
	ledger      BonusJournal
	signupBonus int64
}

func NewService(
	accounts account.Repository,
	jwt *JWTManager,
	redisClient *redis.Client,
	ledger BonusJournal,
	signupBonus int64,
) *Service {
	return &Service{
		accounts:    accounts,
		jwt:         jwt,
		redis:       redisClient,
		ledger:      ledger,
		signupBonus: signupBonus,
	}
}

// Signup creates the account and logs the new user straight in, the same
// flow the client would otherwise do in two round trips. The store also
// enforces username uniqueness; hitting its constraint after the
// pre-check means two signups raced, and the loser gets the same
// duplicate error.
func (s *Service) Signup(
	ctx context.Context,
	req SignupRequest,
) (*AuthResponse, error) {
	exists, err := s.accounts.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.accounts.Create(ctx, req.Username, passwordHash)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// The bonus itself is granted by the schema default; only the journal
	// row is written here, and losing it does not fail the signup.
	if err := s.ledger.NoteBonus(
		ctx,
		user.ID,
		s.signupBonus,
		credits.ReasonSignupBonus,
	); err != nil {
		slog.Warn("journal signup bonus failed",
			"user_id", user.ID,
			"error", err,
		)
	}

	return s.createAuthResponse(user)
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	user, err := s.accounts.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.accounts.SetPasswordHash(ctx, user.ID, newHash)
	}

	return s.createAuthResponse(user)
}

// Logout blacklists the token's jti until the token would have expired
// anyway. The session cache dies with the token.
func (s *Service) Logout(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	key := "blacklist:" + jti
	if err := s.redis.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) isBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := "blacklist:" + jti

	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

// VerifyAccessToken checks the signature and then the logout blacklist,
// satisfying middleware.TokenVerifier.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.isBlacklisted(ctx, claims.JTI)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

// GetCurrentUser returns the authoritative view of the user; credits are
// always read fresh from the store, never from anything cached on the
// session.
func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID int64,
) (*UserResponse, error) {
	user, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Credits:   user.Credits,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *Service) createAuthResponse(user *account.User) (*AuthResponse, error) {
	accessToken, expiresAt, err := s.jwt.CreateAccessToken(
		user.ID,
		user.Username,
	)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return &AuthResponse{
		User: UserResponse{
			ID:        user.ID,
			Username:  user.Username,
			Credits:   user.Credits,
			CreatedAt: user.CreatedAt,
		},
		Token: TokenResponse{
			AccessToken: accessToken,
			TokenType:   "Bearer",
			ExpiresAt:   expiresAt,
		},
	}, nil
}

var _ middleware.TokenVerifier = (*Service)(nil)
