package domain

import (
	"context"
	"strings"
	"time"
)

// User represents a user entity in the system.
// A user can write posts, comment and react.
type User struct {
	ID          string    // Unique identifier
	Email       string    // Login email (unique)
	Handle      string    // Public handle (unique, lowercase)
	DisplayName string    // Display name
	IsAdmin     bool      // Admins may moderate any post or comment
	CreatedAt   time.Time // Account creation timestamp
	UpdatedAt   time.Time // Last profile update timestamp
}

// AuthorInfo is the display projection of a User embedded in read models.
type AuthorInfo struct {
	ID          string `json:"id"`
	Handle      string `json:"user_handle"`
	DisplayName string `json:"display_name"`
}

// AuthorInfo projects the user onto its display fields.
func (u User) AuthorInfo() AuthorInfo {
	return AuthorInfo{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
	}
}

// CanModify reports whether the user may mutate an item owned by ownerID.
func (u User) CanModify(ownerID string) bool {
	return u.IsAdmin || (u.ID != "" && u.ID == ownerID)
}

// NormalizeHandle lowercases and trims a user handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// UserRepository defines the contract for user data persistence.
type UserRepository interface {
	// GetByID retrieves a user by their ID.
	// Returns ErrNotFound if the user doesn't exist.
	GetByID(ctx context.Context, id string) (User, error)

	// GetByIDs retrieves the users with the given IDs in a single query.
	// Unknown IDs are silently skipped.
	GetByIDs(ctx context.Context, ids []string) ([]User, error)

	// Insert creates a new user account and backfills ID and timestamps.
	// Returns ErrConflict if the email or handle is taken.
	Insert(ctx context.Context, u *User) error

	// UpdateProfile modifies the display fields of an existing user.
	// Returns ErrNotFound if the user doesn't exist.
	UpdateProfile(ctx context.Context, u *User) error
}

// AuthorResolver resolves author ids to display records with caching.
type AuthorResolver interface {
	// ResolveAuthor returns ErrNotFound if no user has the given id.
	ResolveAuthor(ctx context.Context, id string) (AuthorInfo, error)
	// ResolveAuthorsBatch omits unknown ids from the result and never issues more
	// than one store query.
	ResolveAuthorsBatch(ctx context.Context, ids []string) (map[string]AuthorInfo, error)
	InvalidateAuthor(ctx context.Context, id string)
}

// UserUsecase defines the business logic contract for user operations.
type UserUsecase interface {
	// Register creates a new user account.
	// Returns ErrConflict if the email or handle already exists.
	Register(ctx context.Context, u *User) error

	GetByID(ctx context.Context, id string) (User, error)

	// UpdateProfile changes the display name of userID on behalf of actorID.
	// Returns ErrForbidden unless actor is the user or an admin.
	UpdateProfile(ctx context.Context, actorID, userID, displayName string) (User, error)
}
