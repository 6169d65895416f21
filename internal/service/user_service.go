package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"account-api/internal/auth"
	"account-api/internal/crypt"
	"account-api/internal/domain"
	"account-api/internal/repository"
	"account-api/internal/response"
)

// UpdateUserInput carries a partial update. Empty fields keep the stored
// value; Pwd is re-hashed only when a new plaintext is supplied.
type UpdateUserInput struct {
	ID   int64
	Name string
	Mail string
	Pwd  string
}

// AuthResult is the login payload: a signed token plus the safe projection.
type AuthResult struct {
	Token string          `json:"token"`
	User  domain.SafeUser `json:"user"`
}

// UserService implements the account business flows. Every operation traps
// its own failures and returns an envelope; no error escapes to the HTTP
// layer.
type UserService interface {
	Create(ctx context.Context, name, mail, pwd string) response.Envelope
	Update(ctx context.Context, in UpdateUserInput) response.Envelope
	Delete(ctx context.Context, id int64) response.Envelope
	GetAll(ctx context.Context) response.Envelope
	GetByID(ctx context.Context, id int64) response.Envelope
	GetByMail(ctx context.Context, mail string) response.Envelope
	Authenticate(ctx context.Context, mail, pwd string) response.Envelope
}

type userService struct {
	users     repository.UserRepository
	logger    *logrus.Logger
	jwtSecret string
}

func NewUserService(users repository.UserRepository, logger *logrus.Logger, jwtSecret string) UserService {
	return &userService{
		users:     users,
		logger:    logger,
		jwtSecret: jwtSecret,
	}
}

func (s *userService) Create(ctx context.Context, name, mail, pwd string) response.Envelope {
	_, err := s.users.GetByMail(ctx, mail)
	if err == nil {
		return response.Conflict("cannot create a user with that mail account")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.WithError(err).Error("create user: mail lookup failed")
		return response.Err("failed to create user", response.CodeCreateError, err.Error())
	}

	hash, err := crypt.HashPassword(pwd)
	if err != nil {
		s.logger.WithError(err).Error("create user: hash failed")
		return response.HashError("internal error hashing password")
	}

	user := &domain.User{Name: name, Mail: mail, Pwd: hash}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return response.Conflict("cannot create a user with that mail account")
		}
		s.logger.WithError(err).Error("create user: insert failed")
		return response.Err("failed to create user", response.CodeCreateError, err.Error())
	}

	return response.Created("user created successfully", user.Safe())
}

func (s *userService) Update(ctx context.Context, in UpdateUserInput) response.Envelope {
	if in.ID == 0 {
		return response.Validation("user id is required for update")
	}

	existing, err := s.users.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound("user not found for update")
		}
		s.logger.WithError(err).Error("update user: lookup failed")
		return response.Err("failed to update user", response.CodeUpdateError, err.Error())
	}

	pwd := existing.Pwd
	if in.Pwd != "" {
		hashed, err := crypt.HashPassword(in.Pwd)
		if err != nil {
			s.logger.WithError(err).Error("update user: hash failed")
			return response.HashError("internal error hashing password")
		}
		pwd = hashed
	}

	merged := &domain.User{
		ID:   in.ID,
		Name: existing.Name,
		Mail: existing.Mail,
		Pwd:  pwd,
	}
	if in.Name != "" {
		merged.Name = in.Name
	}
	if in.Mail != "" {
		merged.Mail = in.Mail
	}

	affected, err := s.users.Update(ctx, merged)
	if err != nil {
		s.logger.WithError(err).Error("update user: write failed")
		return response.Err("failed to update user", response.CodeUpdateError, err.Error())
	}
	// The find above and this conditional update are separate statements; a
	// concurrent delete in between surfaces here as zero affected rows.
	if affected == 0 {
		return response.Err("user not updated", response.CodeUpdateError)
	}

	return response.Success("user updated successfully", merged.Safe())
}

func (s *userService) Delete(ctx context.Context, id int64) response.Envelope {
	affected, err := s.users.Delete(ctx, id)
	if err != nil {
		s.logger.WithError(err).Error("delete user: write failed")
		return response.Err("failed to delete user", response.CodeDeleteError, err.Error())
	}
	if affected == 0 {
		return response.NotFound("user not found for delete")
	}

	return response.Success("user deleted successfully", nil)
}

func (s *userService) GetAll(ctx context.Context) response.Envelope {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("get users: query failed")
		return response.Err("failed to fetch users", response.CodeFetchError, err.Error())
	}

	// empty list, not an error, when no rows exist
	dtos := make([]domain.SafeUser, 0, len(users))
	for i := range users {
		dtos = append(dtos, users[i].Safe())
	}
	return response.Success("users fetched successfully", dtos)
}

func (s *userService) GetByID(ctx context.Context, id int64) response.Envelope {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound("user not found")
		}
		s.logger.WithError(err).Error("get user: query failed")
		return response.Err("failed to fetch user", response.CodeFetchError, err.Error())
	}
	return response.Success("user fetched successfully", user.Safe())
}

func (s *userService) GetByMail(ctx context.Context, mail string) response.Envelope {
	user, err := s.users.GetByMail(ctx, mail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound("user not found")
		}
		s.logger.WithError(err).Error("get user by mail: query failed")
		return response.Err("failed to fetch user by mail", response.CodeFetchError, err.Error())
	}
	return response.Success("user fetched successfully", user.Safe())
}

// Authenticate collapses every lookup or comparison failure into the same
// unauthorized response so callers cannot enumerate accounts.
func (s *userService) Authenticate(ctx context.Context, mail, pwd string) response.Envelope {
	user, err := s.users.GetByMail(ctx, mail)
	if err != nil {
		return response.Unauthorized("invalid credentials")
	}

	if !crypt.ComparePassword(pwd, user.Pwd) {
		return response.Unauthorized("invalid credentials")
	}

	if s.jwtSecret == "" {
		return response.Err("server configuration error", response.CodeConfigError)
	}

	token, err := auth.Sign(s.jwtSecret, user.ID, user.Mail, auth.TokenTTL)
	if err != nil {
		s.logger.WithError(err).Error("authenticate: token signing failed")
		return response.Err("authentication failed", response.CodeAuthError)
	}

	return response.Success("authentication successful", AuthResult{
		Token: token,
		User:  user.Safe(),
	})
}
