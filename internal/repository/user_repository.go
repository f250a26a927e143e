package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stemsi/examforge/internal/docstore"
	"github.com/stemsi/examforge/internal/model"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

const usersCollection = "users"

// userDocument is the merge payload for profile writes. Zero-valued optional
// fields are omitted so a merge never clears the role or creation time.
type userDocument struct {
	UID         string     `json:"uid,omitempty"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	Role        model.Role `json:"role,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserRepository handles user profile documents.
type UserRepository struct {
	store docstore.Store
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(store docstore.Store) *UserRepository {
	return &UserRepository{store: store}
}

// Get retrieves a profile by UID.
func (r *UserRepository) Get(ctx context.Context, uid string) (*model.AppUser, error) {
	var u model.AppUser
	if err := r.store.Get(ctx, usersCollection, uid, &u); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.UID = uid
	return &u, nil
}

// CreateUserDocument writes the profile with merge semantics. The creation
// time is set only for a new document and an existing role is kept.
func (r *UserRepository) CreateUserDocument(ctx context.Context, uid, email, displayName string) error {
	now := time.Now().UTC()
	doc := userDocument{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		UpdatedAt:   now,
	}

	var existing model.AppUser
	err := r.store.Get(ctx, usersCollection, uid, &existing)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		doc.CreatedAt = &now
	case err != nil:
		return fmt.Errorf("read profile: %w", err)
	}

	if err := r.store.Set(ctx, usersCollection, uid, doc, docstore.Merge()); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// UpdateDisplayName changes the stored display name.
func (r *UserRepository) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	doc := userDocument{DisplayName: displayName, UpdatedAt: time.Now().UTC()}
	return r.store.Set(ctx, usersCollection, uid, doc, docstore.Merge())
}

// SetRole assigns a role to the profile, creating the document if needed.
func (r *UserRepository) SetRole(ctx context.Context, uid string, role model.Role) error {
	doc := userDocument{UID: uid, Role: role, UpdatedAt: time.Now().UTC()}
	return r.store.Set(ctx, usersCollection, uid, doc, docstore.Merge())
}
