package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/contesthub/server/models"
	"github.com/contesthub/server/repositories"
)

type UserService interface {
	// SignUp registers the user if the email is unknown. The insert is
	// a single atomic create-if-absent, so two concurrent signups with
	// the same email cannot both succeed. Returns the stored user and
	// whether a new row was created.
	SignUp(ctx context.Context, input SignUpInput) (*models.User, bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// HasRole is the backing query for the role probe endpoints.
	HasRole(ctx context.Context, email string, role models.UserRole) (bool, error)
	UpdateRole(ctx context.Context, id int, role models.UserRole) (*models.User, error)
	UpdateProfile(ctx context.Context, actor *models.User, id int, input UpdateProfileInput) (*models.User, error)
}

type SignUpInput struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Photo   *string `json:"photo"`
	Address *string `json:"address"`
}

type UpdateProfileInput struct {
	Name    string  `json:"name"`
	Photo   *string `json:"photo"`
	Address *string `json:"address"`
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) SignUp(ctx context.Context, input SignUpInput) (*models.User, bool, error) {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Name) == "" {
		return nil, false, fmt.Errorf("%w: name and email are required", ErrValidationFailed)
	}

	user := &models.User{
		Name:    input.Name,
		Email:   input.Email,
		Photo:   input.Photo,
		Address: input.Address,
		Role:    models.RoleUser,
	}

	created, err := s.userRepo.CreateIfAbsent(ctx, user)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return user, created, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) HasRole(ctx context.Context, email string, role models.UserRole) (bool, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Role == role, nil
}

func (s *userService) UpdateRole(ctx context.Context, id int, role models.UserRole) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile lets a user edit their own name, photo and address.
// Admins may edit anyone.
func (s *userService) UpdateProfile(ctx context.Context, actor *models.User, id int, input UpdateProfileInput) (*models.User, error) {
	if actor.ID != id && actor.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidationFailed)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Name = input.Name
	user.Photo = input.Photo
	user.Address = input.Address

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
