package auth

import (
	"context"
	"testing"
	"time"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newTestService(users repository.UserRepository) *AuthService {
	return NewAuthService(users, "test-secret", time.Hour, bcrypt.MinCost)
}

func TestRegister_Success(t *testing.T) {
	users := &MockUserRepository{}
	ctx := context.Background()

	users.On("GetByEmail", ctx, "jane@example.com").Return(nil, repository.ErrNotFound).Once()
	users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil).Once()

	user, err := newTestService(users).Register(ctx, RegisterInput{
		Email:    " Jane@Example.com ",
		Password: "hunter2hunter2",
		FullName: "Jane Doe",
	})

	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))
	users.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := &MockUserRepository{}
	ctx := context.Background()

	users.On("GetByEmail", ctx, "jane@example.com").Return(&domain.User{ID: 1}, nil).Once()

	_, err := newTestService(users).Register(ctx, RegisterInput{
		Email:    "jane@example.com",
		Password: "hunter2hunter2",
		FullName: "Jane Doe",
	})

	assert.EqualError(t, err, "email is already registered")
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_Validation(t *testing.T) {
	service := newTestService(&MockUserRepository{})
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Email: "not-an-email", Password: "hunter2hunter2", FullName: "Jane"})
	assert.EqualError(t, err, "email must be a valid address")

	_, err = service.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "short", FullName: "Jane"})
	assert.EqualError(t, err, "password must be at least 8 characters")

	_, err = service.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "hunter2hunter2", FullName: "  "})
	assert.EqualError(t, err, "fullName is required")
}

func TestLogin_Success(t *testing.T) {
	users := &MockUserRepository{}
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	users.On("GetByEmail", ctx, "jane@example.com").Return(&domain.User{
		ID:           42,
		Email:        "jane@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}, nil).Once()

	token, user, err := newTestService(users).Login(ctx, "Jane@Example.com", "hunter2hunter2")

	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "admin", claims["role"])
}

func TestLogin_WrongPassword(t *testing.T) {
	users := &MockUserRepository{}
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	users.On("GetByEmail", ctx, "jane@example.com").Return(&domain.User{PasswordHash: string(hash)}, nil).Once()

	_, _, err = newTestService(users).Login(ctx, "jane@example.com", "wrong-password")

	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "invalid email or password", apiErr.Message)
}

func TestProfile(t *testing.T) {
	users := &MockUserRepository{}
	ctx := context.Background()

	users.On("GetByID", ctx, int64(42)).Return(&domain.User{
		ID:       42,
		Email:    "jane@example.com",
		FullName: "Jane Doe",
		Role:     domain.RoleUser,
	}, nil).Once()

	user, err := newTestService(users).Profile(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	users.AssertExpectations(t)
}

func TestProfile_UnknownUser(t *testing.T) {
	users := &MockUserRepository{}
	ctx := context.Background()

	users.On("GetByID", ctx, int64(99)).Return(nil, repository.ErrNotFound).Once()

	_, err := newTestService(users).Profile(ctx, 99)

	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.Status)
}

func TestLogin_UnknownEmail(t *testing.T) {
	users := &MockUserRepository{}
	ctx := context.Background()

	users.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repository.ErrNotFound).Once()

	_, _, err := newTestService(users).Login(ctx, "nobody@example.com", "hunter2hunter2")
	assert.EqualError(t, err, "invalid email or password")
}
