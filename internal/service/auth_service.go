package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"campaigndash/internal/config"
	"campaigndash/internal/identity"
	"campaigndash/internal/ids"
	"campaigndash/internal/models"
	"campaigndash/internal/queue"
	"campaigndash/internal/repository"
	"campaigndash/internal/security"
)

const refreshTokenBytes = 64

type AuthService struct {
	users    UserStore
	sessions SessionStore
	limiter  Limiter
	tasks    queue.Enqueuer
	verifier identity.Verifier
	cfg      config.SecurityConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	limiter Limiter,
	tasks queue.Enqueuer,
	verifier identity.Verifier,
	cfg config.SecurityConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		tasks:    tasks,
		verifier: verifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// ClientMeta describes the caller of a session-opening request.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

type AuthResult struct {
	AccessToken    string
	RefreshToken   string
	RefreshExpires time.Time
	User           models.User
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Agree           bool
}

// ValidateRegistration checks the sign-up form without touching storage.
func ValidateRegistration(input RegisterInput) error {
	verr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		verr.add("name", "name is required")
	}
	if !security.ValidEmail(input.Email) {
		verr.add("email", "a valid email is required")
	}
	if checks := security.CheckPassword(input.Password); !checks.OK() {
		verr.add("password", "password needs "+strings.Join(checks.Unmet(), ", "))
	}
	if input.Password != input.ConfirmPassword {
		verr.add("confirm_password", "passwords do not match")
	}
	if !input.Agree {
		verr.add("agree", "terms must be accepted")
	}
	return verr.orNil()
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Register creates an unverified account and queues its verification mail.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	if err := ValidateRegistration(input); err != nil {
		return models.User{}, err
	}
	email := normalizeEmail(input.Email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: passwordHash,
		Role:         s.roleFor(email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}

	s.enqueueVerification(ctx, user)
	s.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("user registered")
	return user, nil
}

// VerifyEmail marks the token's account verified and signs it in. A link can
// sign in only once; after that the account answers ErrAlreadyVerified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string, meta ClientMeta) (AuthResult, error) {
	email, err := security.ParseVerificationToken(token, s.cfg.JWTVerifySecret)
	if err != nil {
		return AuthResult{}, ErrInvalidToken
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return AuthResult{}, err
	}
	if user.Verified {
		return AuthResult{}, ErrAlreadyVerified
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return AuthResult{}, err
	}
	user.Verified = true

	return s.createSession(ctx, user, false, meta)
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user.Verified {
		return ErrAlreadyVerified
	}
	s.enqueueVerification(ctx, user)
	return nil
}

func (s *AuthService) enqueueVerification(ctx context.Context, user models.User) {
	if s.tasks == nil {
		return
	}
	err := s.tasks.Enqueue(ctx, queue.Task{
		Type: queue.TaskVerifyEmail,
		Data: map[string]string{"email": user.Email, "name": user.Name},
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("enqueue verification mail failed")
	}
}

type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
	Meta       ClientMeta
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email := normalizeEmail(input.Email)
	limiterKey := email + "|" + input.Meta.IPAddress

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, limiterKey)
		if err != nil {
			s.log.Warn().Err(err).Msg("login limiter unavailable")
		} else if !allowed {
			return AuthResult{}, ErrRateLimited
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if !user.HasPassword() {
		return AuthResult{}, ErrInvalidCredentials
	}
	if !user.Verified {
		return AuthResult{}, ErrEmailNotVerified
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return AuthResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return AuthResult{}, ErrInvalidPassword
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, limiterKey); err != nil {
			s.log.Warn().Err(err).Msg("reset login limiter failed")
		}
	}
	return s.createSession(ctx, user, input.RememberMe, input.Meta)
}

// GoogleLogin signs in with a provider ID token, creating the account on first use.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string, meta ClientMeta) (AuthResult, error) {
	if s.verifier == nil {
		return AuthResult{}, ErrInvalidIdentity
	}
	profile, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("identity token rejected")
		return AuthResult{}, ErrInvalidIdentity
	}
	email := normalizeEmail(profile.Email)

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		name := profile.Name
		if name == "" {
			name, _, _ = strings.Cut(email, "@")
		}
		user = models.User{
			ID:       ids.New(),
			Email:    email,
			Name:     name,
			IsGoogle: true,
			Verified: true,
			Role:     s.roleFor(email),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return AuthResult{}, err
		}
		s.log.Info().Str("user_id", user.ID).Str("email", email).Msg("identity provider user created")
	case err != nil:
		return AuthResult{}, err
	case !user.Verified:
		if err := s.users.MarkVerified(ctx, user.ID); err != nil {
			return AuthResult{}, err
		}
		user.Verified = true
	}

	return s.createSession(ctx, user, false, meta)
}

// Refresh rotates the refresh token and mints a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if refreshToken == "" {
		return AuthResult{}, ErrInvalidToken
	}
	oldHash := security.HashRefreshToken(refreshToken)
	session, err := s.sessions.FindByRefreshHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return AuthResult{}, ErrInvalidToken
		}
		return AuthResult{}, err
	}

	if session.ExpiresAt.Before(s.now()) {
		if err := s.sessions.DeleteByID(ctx, session.ID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			s.log.Warn().Err(err).Str("session_id", session.ID).Msg("delete expired session failed")
		}
		return AuthResult{}, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidToken
		}
		return AuthResult{}, err
	}

	newToken, newHash, err := security.GenerateRefreshToken(refreshTokenBytes)
	if err != nil {
		return AuthResult{}, err
	}
	expiresAt := s.now().Add(s.refreshTTL(session.Remember))
	if err := s.sessions.Rotate(ctx, session.ID, oldHash, newHash, expiresAt); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return AuthResult{}, ErrInvalidToken
		}
		return AuthResult{}, err
	}

	accessToken, err := s.accessToken(user, session.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		AccessToken:    accessToken,
		RefreshToken:   newToken,
		RefreshExpires: expiresAt,
		User:           user,
	}, nil
}

// Logout drops the session bound to the refresh token, if any.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	session, err := s.sessions.FindByRefreshHash(ctx, security.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if err := s.sessions.DeleteByID(ctx, session.ID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return err
	}
	return nil
}

// Authenticate resolves a bearer token to its live session and user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string, meta ClientMeta) (models.User, security.AccessClaims, error) {
	claims, err := security.ParseAccessToken(accessToken, s.cfg.JWTAccessSecret)
	if err != nil {
		return models.User{}, security.AccessClaims{}, ErrInvalidToken
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.User{}, security.AccessClaims{}, ErrInvalidToken
		}
		return models.User{}, security.AccessClaims{}, err
	}
	if session.UserID != claims.UserID || session.ExpiresAt.Before(s.now()) {
		return models.User{}, security.AccessClaims{}, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, security.AccessClaims{}, ErrInvalidToken
		}
		return models.User{}, security.AccessClaims{}, err
	}

	if err := s.sessions.Touch(ctx, session.ID, meta.IPAddress, meta.UserAgent); err != nil {
		s.log.Debug().Err(err).Str("session_id", session.ID).Msg("touch session failed")
	}
	return user, *claims, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *AuthService) DeleteUser(ctx context.Context, actor models.User, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return &ValidationError{Fields: map[string]string{"email": "email is required"}}
	}
	if email == actor.Email {
		return ErrCannotDeleteSelf
	}
	if err := s.users.DeleteByEmail(ctx, email); err != nil {
		return err
	}
	s.log.Info().Str("user_id", actor.ID).Str("email", email).Msg("user deleted by admin")
	return nil
}

func (s *AuthService) createSession(ctx context.Context, user models.User, remember bool, meta ClientMeta) (AuthResult, error) {
	refreshToken, refreshHash, err := security.GenerateRefreshToken(refreshTokenBytes)
	if err != nil {
		return AuthResult{}, err
	}

	now := s.now()
	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		RefreshTokenHash: refreshHash,
		Remember:         remember,
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
		CreatedAt:        now,
		LastSeenAt:       now,
		ExpiresAt:        now.Add(s.refreshTTL(remember)),
	}

	accessToken, err := s.accessToken(user, session.ID)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, err
	}

	if err := s.enforceSessionLimit(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("enforce session limit failed")
	}

	return AuthResult{
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		RefreshExpires: session.ExpiresAt,
		User:           user,
	}, nil
}

func (s *AuthService) accessToken(user models.User, sessionID string) (string, error) {
	return security.GenerateAccessToken(
		s.cfg.JWTAccessSecret,
		user.ID,
		sessionID,
		user.Email,
		string(user.Role),
		s.cfg.JWTAccessTTL,
	)
}

func (s *AuthService) refreshTTL(remember bool) time.Duration {
	if remember && s.cfg.RememberTTL > 0 {
		return s.cfg.RememberTTL
	}
	return s.cfg.JWTRefreshTTL
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, userID string) error {
	if s.cfg.MaxSessions <= 0 {
		return nil
	}
	count, err := s.sessions.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count <= s.cfg.MaxSessions {
		return nil
	}

	return s.sessions.DeleteOldestSessions(ctx, userID, s.cfg.MaxSessions)
}

// roleFor grants admin to configured addresses and domains.
func (s *AuthService) roleFor(email string) models.UserRole {
	for _, admin := range s.cfg.AdminEmails {
		if normalizeEmail(admin) == email {
			return models.UserRoleAdmin
		}
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	for _, d := range s.cfg.AdminDomains {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(d), "@"), domain) {
			return models.UserRoleAdmin
		}
	}
	return models.UserRoleUser
}
