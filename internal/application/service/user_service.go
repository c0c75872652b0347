package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
)

// CreateUserCommand registers a user who can own and start workflows
type CreateUserCommand struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name,omitempty" validate:"max=100"`
}

// UserService is the minimal identity directory. It also serves port.UserDirectory.
type UserService interface {
	port.UserDirectory
	CreateUser(ctx context.Context, cmd CreateUserCommand) (*entity.User, error)
	GetUser(ctx context.Context, id int64) (*entity.User, error)
}

type userServiceImpl struct {
	users    port.UserRepository
	logger   Logger
	validate *validator.Validate
}

// NewUserService creates a user service
func NewUserService(users port.UserRepository, logger Logger) UserService {
	return &userServiceImpl{
		users:    users,
		logger:   logger,
		validate: validator.New(),
	}
}

func (s *userServiceImpl) CreateUser(ctx context.Context, cmd CreateUserCommand) (*entity.User, error) {
	cmd.Username = strings.TrimSpace(cmd.Username)
	if err := s.validate.Struct(cmd); err != nil {
		return nil, errs.ErrInvalidCommand.Withf("Invalid user: %v", err).Wrap(err)
	}

	existing, err := s.users.FindByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.ErrUserAlreadyExists.Withf("User '%s' already exists", cmd.Username)
	}

	now := time.Now()
	user := &entity.User{
		Username:  cmd.Username,
		Email:     cmd.Email,
		FullName:  cmd.FullName,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *userServiceImpl) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	return s.Lookup(ctx, id)
}

// Lookup resolves an identity for the workflow use cases
func (s *userServiceImpl) Lookup(ctx context.Context, id int64) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.ErrUserNotFound.Withf("User not found with ID: %d", id)
	}
	return user, nil
}
