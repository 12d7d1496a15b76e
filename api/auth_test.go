package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/service/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Register(ctx context.Context, input auth.RegisterInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthUseCase) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*domain.User), args.Error(2)
}

func (m *MockAuthUseCase) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func authRouter(service *MockAuthUseCase, userID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	public := router.Group("/api/v1/auth")
	authed := router.Group("/api/v1/auth", func(c *gin.Context) {
		c.Set(ctxUserID, userID)
	})
	NewAuthHandler(service).Register(public, authed)
	return router
}

func TestProfile_Handler(t *testing.T) {
	service := &MockAuthUseCase{}
	service.On("Profile", mock.Anything, int64(42)).Return(&domain.User{
		ID:       42,
		Email:    "jane@example.com",
		FullName: "Jane Doe",
		Role:     domain.RoleUser,
	}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	authRouter(service, 42).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string       `json:"status"`
		Data   userResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Success", body.Status)
	assert.Equal(t, int64(42), body.Data.ID)
	assert.Equal(t, "jane@example.com", body.Data.Email)
	service.AssertExpectations(t)
}
