package repository

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IdoNaor1/TasteClub/config"
	"github.com/IdoNaor1/TasteClub/internal/app/cache"
	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/app/remote"
	"github.com/IdoNaor1/TasteClub/internal/storage"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
	"github.com/IdoNaor1/TasteClub/pkg/util"
)

type AuthRepository interface {
	Register(ctx context.Context, email, password, userName string) (*model.User, *util.TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	IsTokenRevoked(ctx context.Context, claims *util.Claims) (bool, error)

	GetUser(ctx context.Context, uid string) (*model.User, error)
	RefreshUserFromRemote(ctx context.Context, uid string) (*model.User, error)
	ObserveUser(ctx context.Context, uid string) *cache.Watch[*model.User]
	UpdateProfile(ctx context.Context, uid string, update model.ProfileUpdate) (*model.User, error)
	UpdateProfileImage(ctx context.Context, uid string, image []byte) (*model.User, error)
	RemoveProfileImage(ctx context.Context, uid string) (*model.User, error)

	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type authRepository struct {
	source   *remote.DocumentSource
	images   *storage.ImageStorage
	users    *cache.UserDAO
	tokens   TokenStore
	mailer   ResetMailer
	jwt      config.JWTConfig
	resetTTL time.Duration
}

// NewAuthRepository wires the auth flows. tokens may be nil, which disables
// token revocation and password reset.
func NewAuthRepository(
	source *remote.DocumentSource,
	images *storage.ImageStorage,
	users *cache.UserDAO,
	tokens TokenStore,
	mailer ResetMailer,
	jwtCfg config.JWTConfig,
	resetTTL time.Duration,
) AuthRepository {
	return &authRepository{
		source:   source,
		images:   images,
		users:    users,
		tokens:   tokens,
		mailer:   mailer,
		jwt:      jwtCfg,
		resetTTL: resetTTL,
	}
}

func (r *authRepository) Register(ctx context.Context, email, password, userName string) (*model.User, *util.TokenPair, error) {
	email = model.NormalizeEmail(email)
	logger.Info("Attempting user registration", logger.Fields{"email": email})

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid email address", model.ErrInvalidArgument)
	}
	if err := util.CheckPasswordPolicy(password); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
	}
	userName = strings.TrimSpace(userName)
	if userName == "" {
		userName = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, logger.Fields{"email": email})
		return nil, nil, err
	}

	uid := uuid.NewString()
	if err := r.source.CreateCredentials(ctx, &model.Credentials{UID: uid, Email: email, PasswordHash: hash}); err != nil {
		if errors.Is(err, model.ErrEmailAlreadyExists) {
			logger.Warn("Registration failed: email already exists", logger.Fields{"email": email})
		}
		return nil, nil, err
	}

	user, err := r.source.UpsertUser(ctx, &model.User{UID: uid, Email: email, UserName: userName})
	if err != nil {
		// Login recreates a missing profile from the credentials.
		logger.Error("Failed to create user profile", err, logger.Fields{"uid": uid})
		return nil, nil, err
	}
	r.cacheUser(ctx, user)

	tokens, err := r.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", logger.Fields{"uid": uid, "email": email})
	return user, tokens, nil
}

func (r *authRepository) Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error) {
	email = model.NormalizeEmail(email)
	logger.Info("Login attempt", logger.Fields{"email": email})

	creds, err := r.source.GetCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrInvalidArgument) {
			return nil, nil, model.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if creds == nil || !util.VerifyPassword(creds.PasswordHash, password) {
		logger.Warn("Login failed: invalid credentials", logger.Fields{"email": email})
		return nil, nil, model.ErrInvalidCredentials
	}

	user, err := r.RefreshUserFromRemote(ctx, creds.UID)
	if errors.Is(err, model.ErrNotFound) {
		logger.Warn("Profile missing at login, recreating", logger.Fields{"uid": creds.UID})
		user, err = r.source.UpsertUser(ctx, &model.User{
			UID:      creds.UID,
			Email:    creds.Email,
			UserName: strings.SplitN(creds.Email, "@", 2)[0],
		})
		if err == nil {
			r.cacheUser(ctx, user)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	tokens, err := r.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("User logged in successfully", logger.Fields{"uid": user.UID})
	return user, tokens, nil
}

func (r *authRepository) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(user.UID, user.Email, r.jwt.Secret, r.jwt.AccessTokenExpiry, r.jwt.RefreshTokenExpiry)
	if err != nil {
		logger.Error("Failed to generate tokens", err, logger.Fields{"uid": user.UID})
		return nil, err
	}
	return tokens, nil
}

// RefreshTokens exchanges a valid refresh token for a new pair and revokes the old one.
func (r *authRepository) RefreshTokens(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, r.jwt.Secret)
	if err != nil || claims.TokenType != util.TokenTypeRefresh {
		return nil, util.ErrInvalidToken
	}
	revoked, err := r.IsTokenRevoked(ctx, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, util.ErrInvalidToken
	}

	user, err := r.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if r.tokens != nil {
		if err := r.tokens.RevokeToken(ctx, claims.ID, claims.TokenTTL()); err != nil {
			return nil, err
		}
	}
	return r.issueTokens(user)
}

// Logout revokes the given tokens. Invalid or expired tokens are ignored.
func (r *authRepository) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if r.tokens == nil {
		logger.Debug("Token store not configured, logout is client-side only")
		return nil
	}
	for _, token := range []string{accessToken, refreshToken} {
		if token == "" {
			continue
		}
		claims, err := util.ValidateToken(token, r.jwt.Secret)
		if err != nil {
			continue
		}
		if err := r.tokens.RevokeToken(ctx, claims.ID, claims.TokenTTL()); err != nil {
			return err
		}
		logger.Info("Token revoked", logger.Fields{"uid": claims.UserID, "type": claims.TokenType})
	}
	return nil
}

func (r *authRepository) IsTokenRevoked(ctx context.Context, claims *util.Claims) (bool, error) {
	if r.tokens == nil || claims == nil || claims.ID == "" {
		return false, nil
	}
	return r.tokens.IsTokenRevoked(ctx, claims.ID)
}

// GetUser reads the cached profile, falling back to the remote store.
func (r *authRepository) GetUser(ctx context.Context, uid string) (*model.User, error) {
	if cached, err := r.users.GetByID(ctx, uid); err == nil && cached != nil {
		return cached, nil
	}
	return r.RefreshUserFromRemote(ctx, uid)
}

// RefreshUserFromRemote re-reads the profile and overwrites the cached row.
func (r *authRepository) RefreshUserFromRemote(ctx context.Context, uid string) (*model.User, error) {
	user, err := r.source.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, uid)
	}
	r.cacheUser(ctx, user)
	return user, nil
}

func (r *authRepository) ObserveUser(ctx context.Context, uid string) *cache.Watch[*model.User] {
	return r.users.Observe(ctx, uid)
}

func (r *authRepository) UpdateProfile(ctx context.Context, uid string, update model.ProfileUpdate) (*model.User, error) {
	if update.UserName != nil {
		name := strings.TrimSpace(*update.UserName)
		if name == "" {
			return nil, fmt.Errorf("%w: userName must not be blank", model.ErrInvalidArgument)
		}
		update.UserName = &name
	}
	if err := r.source.UpdateUserProfile(ctx, uid, update); err != nil {
		return nil, err
	}
	return r.RefreshUserFromRemote(ctx, uid)
}

func (r *authRepository) UpdateProfileImage(ctx context.Context, uid string, image []byte) (*model.User, error) {
	url, err := r.images.UploadProfileImage(ctx, uid, image)
	if err != nil {
		logger.Error("Failed to upload profile image", err, logger.Fields{"uid": uid})
		return nil, err
	}
	return r.UpdateProfile(ctx, uid, model.ProfileUpdate{ProfileImageURL: &url})
}

func (r *authRepository) RemoveProfileImage(ctx context.Context, uid string) (*model.User, error) {
	if err := r.images.DeleteProfileImage(ctx, uid); err != nil {
		return nil, err
	}
	empty := ""
	return r.UpdateProfile(ctx, uid, model.ProfileUpdate{ProfileImageURL: &empty})
}

// RequestPasswordReset mails a reset link when the email has an account.
// Unknown emails succeed silently so accounts cannot be probed.
func (r *authRepository) RequestPasswordReset(ctx context.Context, email string) error {
	if r.tokens == nil {
		return fmt.Errorf("%w: password reset requires redis", model.ErrUnavailable)
	}
	creds, err := r.source.GetCredentials(ctx, email)
	if err != nil {
		return err
	}
	if creds == nil {
		logger.Info("Password reset requested for unknown email", logger.Fields{"email": model.NormalizeEmail(email)})
		return nil
	}

	token := uuid.NewString()
	if err := r.tokens.SaveResetToken(ctx, token, creds.Email, r.resetTTL); err != nil {
		return err
	}
	return r.mailer.SendPasswordReset(creds.Email, token)
}

func (r *authRepository) ResetPassword(ctx context.Context, token, newPassword string) error {
	if r.tokens == nil {
		return fmt.Errorf("%w: password reset requires redis", model.ErrUnavailable)
	}
	if err := util.CheckPasswordPolicy(newPassword); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
	}
	email, found, err := r.tokens.ConsumeResetToken(ctx, token)
	if err != nil {
		return err
	}
	if !found {
		return model.ErrInvalidResetToken
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := r.source.UpdatePasswordHash(ctx, email, hash); err != nil {
		return err
	}
	logger.Info("Password reset completed", logger.Fields{"email": email})
	return nil
}

func (r *authRepository) cacheUser(ctx context.Context, user *model.User) {
	if err := r.users.Upsert(ctx, user); err != nil {
		logger.Warn("Failed to mirror user into cache", logger.Fields{"uid": user.UID, "error": err.Error()})
	}
}
