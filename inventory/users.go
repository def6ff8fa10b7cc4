// users.go - Directory operations layered on UserDirectory: registration
// defaults and role promotion. Authentication itself lives outside the engine.
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// USER SERVICE
// =============================================================================

type UserService struct {
	Directory UserDirectory
}

func NewUserService(dir UserDirectory) *UserService {
	return &UserService{Directory: dir}
}

// Register creates a user and places them in the normal-user role, the same
// default every new account gets.
func (s *UserService) Register(ctx context.Context, email string) (*User, error) {
	u := &User{
		ID:        UserID(uuid.NewString()),
		Email:     email,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Directory.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	if err := s.Directory.AddRole(ctx, u.ID, RoleUser); err != nil {
		return nil, err
	}
	return u, nil
}

// MakeModerator promotes a user to moderator and drops the normal-user role.
func (s *UserService) MakeModerator(ctx context.Context, id UserID) error {
	return s.promote(ctx, id, RoleModerator)
}

// MakeAdmin promotes a user to admin and drops the normal-user role.
func (s *UserService) MakeAdmin(ctx context.Context, id UserID) error {
	return s.promote(ctx, id, RoleAdmin)
}

func (s *UserService) promote(ctx context.Context, id UserID, role Role) error {
	if _, err := s.Directory.GetUser(ctx, id); err != nil {
		return err
	}
	if err := s.Directory.AddRole(ctx, id, role); err != nil {
		return err
	}
	return s.Directory.RemoveRole(ctx, id, RoleUser)
}

// EnsureSuperuser guarantees a superuser account exists for the given email,
// creating it on first startup. New assets default to superuser ownership, so
// the system cannot run without one.
func (s *UserService) EnsureSuperuser(ctx context.Context, email string) (*User, error) {
	if u, err := s.Directory.GetUserByEmail(ctx, email); err == nil {
		return u, nil
	} else if !IsNotFound(err) {
		return nil, err
	}

	u := &User{
		ID:        UserID(uuid.NewString()),
		Email:     email,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Directory.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	if err := s.Directory.AddRole(ctx, u.ID, RoleSuperuser); err != nil {
		return nil, err
	}
	return u, nil
}

// Superuser returns any user holding the superuser role.
func (s *UserService) Superuser(ctx context.Context) (*User, error) {
	users, err := s.Directory.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		ok, err := s.Directory.HasRole(ctx, users[i].ID, RoleSuperuser)
		if err != nil {
			return nil, err
		}
		if ok {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}
