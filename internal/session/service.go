package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/monolog_auth/internal/hash"
	"github.com/Skotchmaster/monolog_auth/internal/logging"
	"github.com/Skotchmaster/monolog_auth/internal/models"
	"github.com/Skotchmaster/monolog_auth/internal/repo"
	"github.com/Skotchmaster/monolog_auth/internal/tokens"
)

type TTLConfig struct {
	Access   time.Duration // default access token lifetime
	Extended time.Duration // access token lifetime with remember_me
	Refresh  time.Duration // refresh token lifetime, fixed
}

func DefaultTTL() TTLConfig {
	return TTLConfig{
		Access:   30 * time.Minute,
		Extended: 7 * 24 * time.Hour,
		Refresh:  7 * 24 * time.Hour,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Service orchestrates login, refresh and logout over the codec and the
// store. The store keeps exactly one live refresh token per identity;
// every successful login or refresh overwrites it, so two racing
// refreshes both succeed but only the later pair survives its next use.
type Service struct {
	Users *repo.UserRepo
	Codec *tokens.Codec
	Store Store
	TTL   TTLConfig
}

func (s *Service) Register(ctx context.Context, email, nickname, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "session.register")

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: pwHash,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicateUser) {
			l.Warn("register_failed", "status", 400, "reason", "duplicate identity")
			return nil, ErrDuplicateIdentity
		}
		l.Error("register_failed", "status", 500, "error", err)
		return nil, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string, extended bool) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "session.login", "email", email)

	user, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.mintPair(user.Email, extended)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	// Fail closed: a token whose refresh counterpart was never recorded
	// could not be rotated or revoked later.
	if err := s.Store.PutRefresh(ctx, user.Email, pair.RefreshToken, s.TTL.Refresh); err != nil {
		l.Error("login_failed", "status", 503, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	l.Info("login_successful", "extended", extended)
	return pair, nil
}

func (s *Service) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "session.refresh")

	claims, err := s.Codec.ParseRefresh(presented)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid token", "error", err)
		return nil, err
	}
	identity := claims.Subject

	stored, err := s.Store.GetRefresh(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "no stored token", "email", identity)
			return nil, ErrRevokedOrStale
		}
		l.Error("refresh_failed", "status", 503, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// A pre-rotation token has a valid signature but no longer matches
	// the stored value; it is treated exactly like a forged one.
	if stored != presented {
		l.Warn("refresh_failed", "status", 401, "reason", "superseded token", "email", identity)
		return nil, ErrRevokedOrStale
	}

	pair, err := s.mintPair(identity, false)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	if err := s.Store.PutRefresh(ctx, identity, pair.RefreshToken, s.TTL.Refresh); err != nil {
		l.Error("refresh_failed", "status", 503, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	l.Info("refresh_successful", "email", identity)
	return pair, nil
}

// Logout blacklists the presented access token for its remaining
// lifetime and drops the stored refresh token. An access token that no
// longer decodes needs no blacklist entry.
func (s *Service) Logout(ctx context.Context, identity, accessToken string) error {
	l := logging.FromContext(ctx).With("svc", "session.logout", "email", identity)

	if claims, err := s.Codec.ParseAccess(accessToken); err == nil {
		remaining := time.Until(claims.ExpiresAt.Time)
		if err := s.Store.Revoke(ctx, accessToken, remaining); err != nil {
			l.Error("logout_failed", "status", 503, "error", err)
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	deleted, err := s.Store.DeleteRefresh(ctx, identity)
	if err != nil {
		l.Error("logout_failed", "status", 503, "error", err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !deleted {
		l.Warn("logout_without_session")
	}

	l.Info("logout_successful")
	return nil
}

func (s *Service) mintPair(identity string, extended bool) (*TokenPair, error) {
	accessTTL := s.TTL.Access
	if extended {
		accessTTL = s.TTL.Extended
	}

	access, err := s.Codec.MintAccess(identity, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Codec.MintRefresh(identity, s.TTL.Refresh)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    now.Add(accessTTL),
		RefreshExp:   now.Add(s.TTL.Refresh),
	}, nil
}
