package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/farellandr/ticketmart/internal/clock"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	Secret     string
	TTL        time.Duration
	Issuer     string
	BcryptCost int
}

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Actor() Actor {
	return Actor{UserID: c.UserID, Role: c.Role}
}

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	Role        models.Role
}

// Session is a signed-in user with the token that authenticates them.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	users  UserStore
	config AuthConfig
	clock  clock.Clock
	log    *zap.Logger
}

func NewAuthService(users UserStore, cfg AuthConfig, clk clock.Clock, log *zap.Logger) *AuthService {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, config: cfg, clock: clk, log: log}
}

// Register creates a shopper or organizer account. Admins are never
// self-registered.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if in.Role == "" {
		in.Role = models.RoleShopper
	}
	if in.Role != models.RoleShopper && in.Role != models.RoleOrganizer {
		return nil, models.NewValidationError("role must be shopper or organizer")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewValidationError("please add a name")
	}
	if len(in.Password) < 6 {
		return nil, models.NewValidationError("password must be at least 6 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.config.BcryptCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Password:    string(hashed),
		PhoneNumber: in.PhoneNumber,
		Role:        in.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))

	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return s.session(user)
}

// ParseToken validates an HS256 token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, models.ErrInvalidToken
		}
		return []byte(s.config.Secret), nil
	},
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.UserID == uuid.Nil {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.clock.Now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}
