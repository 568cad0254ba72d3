package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type (
	RegisterInput struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Currency string `json:"currency"`
	}

	LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// LoginResult is the signed-in user and their bearer token.
	LoginResult struct {
		User        core.User `json:"user"`
		AccessToken string    `json:"accessToken"`
	}

	UpdateProfileInput struct {
		Name     *string `json:"name"`
		Currency *string `json:"currency"`
	}

	ChangePasswordInput struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
)

type UserService struct {
	users        storage.UserStore
	tokens       TokenIssuer
	defaultLimit int64
	now          func() time.Time
}

func NewUserService(users storage.UserStore, tokens TokenIssuer, defaultLimit int64) *UserService {
	return &UserService{
		users:        users,
		tokens:       tokens,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*core.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return nil, core.Validation("Name, Email and Password are required!")
	}
	currency := core.USD
	if in.Currency != "" {
		currency = core.Currency(in.Currency)
		if !currency.IsValid() {
			return nil, invalidCurrency()
		}
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, core.Conflict("Email already registered!")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &core.User{
		Name:             name,
		Email:            email,
		PasswordHash:     hash,
		Role:             core.RoleUser,
		Currency:         currency,
		TransactionLimit: s.defaultLimit,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, core.Conflict("Email already registered!")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered",
		log.FieldComponent, log.ComponentAuth,
		log.FieldUserID, u.ID)

	return u, nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, core.Validation("Email and Password are required!")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.NotFound("User not found. Please register first!")
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return nil, core.Rule("Incorrect Password!")
	}

	token, err := s.tokens.Issue(*u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	slog.InfoContext(ctx, "User logged in",
		log.FieldComponent, log.ComponentAuth,
		log.FieldUserID, u.ID)

	return &LoginResult{User: *u, AccessToken: token}, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*core.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User")
	}
	return u, nil
}

// UpdateProfile changes the display name or base currency. Amounts already
// stored keep the currency they were recorded in.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*core.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, core.Validation("Name cannot be empty")
		}
		u.Name = name
	}
	if in.Currency != nil {
		c := core.Currency(*in.Currency)
		if !c.IsValid() {
			return nil, invalidCurrency()
		}
		u.Currency = c
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, lookupError(err, "User")
	}
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return core.Validation("Current and new password are required")
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return lookupError(err, "User")
	}
	if !auth.CheckPassword(u.PasswordHash, in.CurrentPassword) {
		return core.Rule("Incorrect Password!")
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return lookupError(err, "User")
	}
	return nil
}

func (s *UserService) List(ctx context.Context) ([]core.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return lookupError(err, "User")
	}
	slog.InfoContext(ctx, "User deleted",
		log.FieldComponent, log.ComponentAuth,
		log.FieldUserID, id)
	return nil
}

func (s *UserService) SetRole(ctx context.Context, id string, role core.Role) (*core.User, error) {
	if !role.IsValid() {
		return nil, core.Validation("Invalid role")
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, lookupError(err, "User")
	}
	u.Role = role
	u.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, lookupError(err, "User")
	}
	return u, nil
}

func (s *UserService) SetTransactionLimit(ctx context.Context, id string, limit int64) (*core.User, error) {
	if limit < 0 {
		return nil, core.Validation("Transaction limit cannot be negative")
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, lookupError(err, "User")
	}
	u.TransactionLimit = limit
	u.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, lookupError(err, "User")
	}
	return u, nil
}
