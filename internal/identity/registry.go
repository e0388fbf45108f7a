// Package identity owns user records: passwordless signup, self service
// profile edits and admin management.
package identity

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/model"
	"bitwise74/rating-api/internal/store"
	"bitwise74/rating-api/pkg/validators"
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idSize    = 16
	stampSize = 32
)

// Patch holds the optional fields of a user update. Nil fields are left alone.
type Patch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *model.Role
}

// Input describes a user created by an admin.
type Input struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Bio       string
	Role      model.Role
}

type Registry struct {
	g *store.Graph
}

func New(g *store.Graph) *Registry {
	return &Registry{g: g}
}

// CreateOrFetch returns the user owning exactly this username and email,
// creating it when neither is taken. isNew reports whether a row was inserted.
func (r *Registry) CreateOrFetch(ctx context.Context, username, email string) (u *model.User, isNew bool, err error) {
	if err := validateIdentity(username, email); err != nil {
		return nil, false, err
	}

	u, err = r.match(ctx, username, email)
	if err != nil || u != nil {
		return u, false, err
	}

	u, err = newUser(Input{Username: username, Email: email, Role: model.RoleUser})
	if err != nil {
		return nil, false, err
	}

	err = r.g.CreateUser(ctx, u)
	if store.IsDuplicate(err) {
		// Somebody else won the insert. Their row decides the outcome.
		u, err = r.match(ctx, username, email)
		if err == nil && u == nil {
			err = apperr.Conflict("username", "username or email already taken")
		}

		return u, false, err
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to create user, %w", err)
	}

	return u, true, nil
}

// match returns the user owning both username and email, nil when neither is
// taken, or a conflict naming the field owned by somebody else.
func (r *Registry) match(ctx context.Context, username, email string) (*model.User, error) {
	byEmail, err := r.g.UserByEmail(ctx, email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	if byEmail != nil {
		if byEmail.Username == username {
			return byEmail, nil
		}

		return nil, apperr.Conflict("email", "email is already registered to another user")
	}

	byName, err := r.g.UserByUsername(ctx, username)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	if byName != nil {
		return nil, apperr.Conflict("username", "username is already taken")
	}

	return nil, nil
}

// Create inserts a user on behalf of an admin. Taken usernames or emails are
// conflicts, there is no fetch.
func (r *Registry) Create(ctx context.Context, in Input) (*model.User, error) {
	if err := validateIdentity(in.Username, in.Email); err != nil {
		return nil, err
	}

	if in.Role == "" {
		in.Role = model.RoleUser
	}

	if !in.Role.Valid() {
		return nil, apperr.Validation("role", "role must be one of user, moderator, admin")
	}

	if err := r.ensureFree(ctx, "", in.Username, in.Email); err != nil {
		return nil, err
	}

	u, err := newUser(in)
	if err != nil {
		return nil, err
	}

	if err := r.g.CreateUser(ctx, u); err != nil {
		return nil, r.duplicate(ctx, err, "", in.Username)
	}

	return u, nil
}

func (r *Registry) Get(ctx context.Context, username string) (*model.User, error) {
	return r.g.UserByUsername(ctx, username)
}

func (r *Registry) ByID(ctx context.Context, id string) (*model.User, error) {
	return r.g.UserByID(ctx, id)
}

func (r *Registry) List(ctx context.Context, search string, p store.Page) ([]model.User, int64, error) {
	return r.g.ListUsers(ctx, search, p)
}

// UpdateSelf applies p to the caller's own record. Role changes are dropped
// without an error.
func (r *Registry) UpdateSelf(ctx context.Context, u *model.User, p Patch) (*model.User, error) {
	p.Role = nil
	return r.apply(ctx, u, p)
}

// Update applies p to the user called username, role included.
func (r *Registry) Update(ctx context.Context, username string, p Patch) (*model.User, error) {
	u, err := r.g.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return r.apply(ctx, u, p)
}

func (r *Registry) Delete(ctx context.Context, username string) error {
	u, err := r.g.UserByUsername(ctx, username)
	if err != nil {
		return err
	}

	return r.g.DeleteUser(ctx, u.ID)
}

// MarkLogin records a successful code exchange and rotates the stamp, which
// stops the code just used from verifying again. It only writes when the stamp
// is still the one the code was checked against, so of two exchanges racing
// with the same code one fails with an invalid code.
func (r *Registry) MarkLogin(ctx context.Context, u *model.User, at time.Time) error {
	stamp, err := gonanoid.New(stampSize)
	if err != nil {
		return fmt.Errorf("failed to rotate stamp, %w", err)
	}

	ok, err := r.g.UpdateUserIfStamp(ctx, u.ID, u.Stamp, map[string]any{
		"last_login_at": at,
		"stamp":         stamp,
	})
	if err != nil {
		return fmt.Errorf("failed to record login, %w", err)
	}

	if !ok {
		return apperr.InvalidCode()
	}

	u.LastLoginAt = &at
	u.Stamp = stamp
	return nil
}

// apply writes the patched columns and a fresh stamp, nothing else. u may be
// stale, it is replaced with the stored record afterwards.
func (r *Registry) apply(ctx context.Context, u *model.User, p Patch) (*model.User, error) {
	cols := map[string]any{}

	if p.Username != nil {
		if err := validators.UsernameValidator(*p.Username); err != nil {
			return nil, apperr.Validation("username", err.Error())
		}
		cols["username"] = *p.Username
	}

	if p.Email != nil {
		if err := validators.EmailValidator(*p.Email); err != nil {
			return nil, apperr.Validation("email", err.Error())
		}
		cols["email"] = *p.Email
	}

	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, apperr.Validation("role", "role must be one of user, moderator, admin")
		}
		cols["role"] = *p.Role
	}

	if p.FirstName != nil {
		cols["first_name"] = *p.FirstName
	}

	if p.LastName != nil {
		cols["last_name"] = *p.LastName
	}

	if p.Bio != nil {
		cols["bio"] = *p.Bio
	}

	var username, email string
	if p.Username != nil {
		username = *p.Username
	}
	if p.Email != nil {
		email = *p.Email
	}

	if err := r.ensureFree(ctx, u.ID, username, email); err != nil {
		return nil, err
	}

	stamp, err := gonanoid.New(stampSize)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate stamp, %w", err)
	}
	cols["stamp"] = stamp

	if err := r.g.UpdateUser(ctx, u.ID, cols); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}

		return nil, r.duplicate(ctx, err, u.ID, username)
	}

	fresh, err := r.g.UserByID(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	*u = *fresh
	return u, nil
}

// ensureFree fails when username or email belongs to a user other than selfID.
// Empty values are not checked.
func (r *Registry) ensureFree(ctx context.Context, selfID, username, email string) error {
	if username != "" {
		if other, err := r.g.UserByUsername(ctx, username); err == nil && other.ID != selfID {
			return apperr.Conflict("username", "username is already taken")
		} else if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
	}

	if email == "" {
		return nil
	}

	if other, err := r.g.UserByEmail(ctx, email); err == nil && other.ID != selfID {
		return apperr.Conflict("email", "email is already registered to another user")
	} else if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return err
	}

	return nil
}

// duplicate turns a unique index violation from a racing write into a
// conflict on the right field.
func (r *Registry) duplicate(ctx context.Context, err error, selfID, username string) error {
	if !store.IsDuplicate(err) {
		return fmt.Errorf("failed to save user, %w", err)
	}

	if other, lookupErr := r.g.UserByUsername(ctx, username); lookupErr == nil && other.ID != selfID {
		return apperr.Conflict("username", "username is already taken")
	}

	return apperr.Conflict("email", "email is already registered to another user")
}

func validateIdentity(username, email string) error {
	if err := validators.UsernameValidator(username); err != nil {
		return apperr.Validation("username", err.Error())
	}

	if err := validators.EmailValidator(email); err != nil {
		return apperr.Validation("email", err.Error())
	}

	return nil
}

func newUser(in Input) (*model.User, error) {
	id, err := gonanoid.Generate(idCharset, idSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID, %w", err)
	}

	stamp, err := gonanoid.New(stampSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate stamp, %w", err)
	}

	return &model.User{
		ID:        id,
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Role:      in.Role,
		Stamp:     stamp,
	}, nil
}
