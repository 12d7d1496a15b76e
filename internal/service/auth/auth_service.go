package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type AuthService struct {
	users      repository.UserRepository
	jwtSecret  string
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users repository.UserRepository, jwtSecret string, tokenTTL time.Duration, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.BadRequest("email must be a valid address")
	}
	if len(input.Password) < 8 {
		return nil, domain.BadRequest("password must be at least 8 characters")
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, domain.BadRequest("fullName is required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.BadRequest("email is already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(input.FullName),
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, domain.Unauthorized("invalid email or password")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.Unauthorized("invalid email or password")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"exp":  now.Add(s.tokenTTL).Unix(),
		"iat":  now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Profile returns the user behind an authenticated request.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

var _ AuthUseCase = (*AuthService)(nil)
