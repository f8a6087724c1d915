package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/docstore"
)

// GetUser returns nil, nil when the profile does not exist.
func (s *DocumentSource) GetUser(ctx context.Context, uid string) (*model.User, error) {
	if err := requireID("uid", uid); err != nil {
		return nil, err
	}
	var user model.User
	found, err := s.get(ctx, UsersCollection, uid, &user)
	if err != nil || !found {
		return nil, err
	}
	user.UID = uid
	return &user, nil
}

// UpsertUser writes the full profile, keeping the stored createdAt when the
// document already exists. It returns the stamped profile.
func (s *DocumentSource) UpsertUser(ctx context.Context, user *model.User) (*model.User, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: user is required", model.ErrInvalidArgument)
	}
	if err := requireID("uid", user.UID); err != nil {
		return nil, err
	}

	existing, err := s.GetUser(ctx, user.UID)
	if err != nil {
		return nil, err
	}

	now := s.nowMillis()
	stamped := *user
	stamped.CreatedAt = now
	if existing != nil {
		stamped.CreatedAt = existing.CreatedAt
	}
	stamped.LastUpdated = now

	if err := s.store.Set(ctx, UsersCollection, stamped.UID, stamped); err != nil {
		return nil, fmt.Errorf("failed to write user %s: %w", stamped.UID, err)
	}
	return &stamped, nil
}

// UpdateUserProfile applies the non-nil fields of update. An empty update is a no-op.
func (s *DocumentSource) UpdateUserProfile(ctx context.Context, uid string, update model.ProfileUpdate) error {
	if err := requireID("uid", uid); err != nil {
		return err
	}
	if update.Empty() {
		return nil
	}

	var updates []docstore.Update
	if update.UserName != nil {
		updates = append(updates, docstore.Update{Field: "userName", Value: *update.UserName})
	}
	if update.Bio != nil {
		updates = append(updates, docstore.Update{Field: "bio", Value: *update.Bio})
	}
	if update.ProfileImageURL != nil {
		updates = append(updates, docstore.Update{Field: "profileImageUrl", Value: *update.ProfileImageURL})
	}
	updates = append(updates, docstore.Update{Field: fieldLastUpdated, Value: s.nowMillis()})

	err := s.store.Update(ctx, UsersCollection, uid, updates)
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: user %s", model.ErrNotFound, uid)
	}
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", uid, err)
	}
	return nil
}

// GetCredentials returns nil, nil when no account uses email.
func (s *DocumentSource) GetCredentials(ctx context.Context, email string) (*model.Credentials, error) {
	key := model.NormalizeEmail(email)
	if err := requireID("email", key); err != nil {
		return nil, err
	}
	var creds model.Credentials
	found, err := s.get(ctx, CredentialsCollection, key, &creds)
	if err != nil || !found {
		return nil, err
	}
	return &creds, nil
}

// CreateCredentials registers a login. It fails with model.ErrEmailAlreadyExists
// when the email is taken.
func (s *DocumentSource) CreateCredentials(ctx context.Context, creds *model.Credentials) error {
	if creds == nil {
		return fmt.Errorf("%w: credentials are required", model.ErrInvalidArgument)
	}
	key := model.NormalizeEmail(creds.Email)
	if err := requireID("email", key); err != nil {
		return err
	}
	if err := requireID("uid", creds.UID); err != nil {
		return err
	}

	now := s.nowMillis()
	record := *creds
	record.Email = key
	record.CreatedAt = now
	record.LastUpdated = now

	err := s.store.Create(ctx, CredentialsCollection, key, record)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return model.ErrEmailAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create credentials: %w", err)
	}
	return nil
}

func (s *DocumentSource) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	key := model.NormalizeEmail(email)
	if err := requireID("email", key); err != nil {
		return err
	}
	err := s.store.Update(ctx, CredentialsCollection, key, []docstore.Update{
		{Field: "passwordHash", Value: passwordHash},
		{Field: fieldLastUpdated, Value: s.nowMillis()},
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: credentials for %s", model.ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	return nil
}
