package api

import (
	"net/http"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/service/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service auth.AuthUseCase
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func NewAuthHandler(service auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(public, authed *gin.RouterGroup) {
	public.POST("/register", h.register)
	public.POST("/login", h.login)
	authed.GET("/me", h.profile)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.BadRequest("invalid request body"))
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusCreated, "registration successful", toUserResponse(user))
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.BadRequest("invalid request body"))
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, "login successful", loginResponse{Token: token, User: toUserResponse(user)})
}

func (h *AuthHandler) profile(c *gin.Context) {
	user, err := h.service.Profile(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, "profile retrieved successfully", toUserResponse(user))
}

func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     string(user.Role),
	}
}
