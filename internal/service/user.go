package service

import (
	"context"
	"strings"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type ProfilePatch struct {
	Name        *string
	Email       *string
	PhoneNumber *string
	Password    *string
}

// UserPatch is a profile patch plus the fields only an admin may change.
type UserPatch struct {
	ProfilePatch
	Role *models.Role
}

type UserService struct {
	tx    Transactor
	users UserStore
	log   *zap.Logger
	cost  int
}

func NewUserService(tx Transactor, users UserStore, log *zap.Logger) *UserService {
	return &UserService{tx: tx, users: users, log: log, cost: bcrypt.DefaultCost}
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*models.User, error) {
	return s.update(ctx, userID, UserPatch{ProfilePatch: patch})
}

func (s *UserService) List(ctx context.Context, actor Actor) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}

func (s *UserService) Update(ctx context.Context, actor Actor, id uuid.UUID, patch UserPatch) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, models.NewValidationError("unknown role %q", *patch.Role)
	}
	return s.update(ctx, id, patch)
}

func (s *UserService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	if actor.UserID == id {
		return models.NewValidationError("admins cannot delete their own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("user_id", id.String()), zap.String("by", actor.UserID.String()))
	return nil
}

func (s *UserService) update(ctx context.Context, id uuid.UUID, patch UserPatch) (*models.User, error) {
	var user *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return models.NewValidationError("name cannot be empty")
			}
			user.Name = name
		}
		if patch.Email != nil {
			user.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
		}
		if patch.PhoneNumber != nil {
			user.PhoneNumber = *patch.PhoneNumber
		}
		if patch.Password != nil {
			if len(*patch.Password) < 6 {
				return models.NewValidationError("password must be at least 6 characters")
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), s.cost)
			if err != nil {
				return err
			}
			user.Password = string(hashed)
		}
		if patch.Role != nil {
			user.Role = *patch.Role
		}
		return s.users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
