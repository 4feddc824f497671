package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-accounts/internal/transport/http/middleware"
	"github.com/arklim/social-platform-accounts/internal/usecase"
)

// AccountHandler exposes the account identity endpoints.
type AccountHandler struct {
	accounts *usecase.AccountService
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(accounts *usecase.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterRoutes binds account routes, applying the auth middleware where required.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	r.POST("/login", h.login)
	r.POST("/register", h.register)
	r.PUT("/confirm-email", h.confirmEmail)
	r.PUT("/resend-email-confirmation-link/:email", h.resendConfirmationLink)
	r.POST("/reset-username-password/:email", h.requestPasswordReset)
	r.POST("/reset-password", h.resetPassword)
	r.GET("/refresh-user-token", authMiddleware, h.refreshUserToken)
}

func (h *AccountHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	authed, err := h.accounts.Login(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid username or password"},
			{Err: usecase.ErrEmailUnconfirmed, Status: http.StatusUnauthorized, Message: "please confirm your email"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		FirstName: authed.Account.FirstName,
		LastName:  authed.Account.LastName,
		JWT:       authed.SessionToken,
	})
}

func (h *AccountHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	_, err := h.accounts.Register(c.Request.Context(), usecase.RegistrationInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrValidationFailed) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
			return
		}
		if errors.Is(err, usecase.ErrDeliveryFailed) {
			// The account was created; the confirmation email was not sent.
			c.JSON(http.StatusCreated, MessageResponse{
				Title:   "registration successful",
				Message: "failed to send email, please contact admin",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "registration failed"))
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{
		Title:   "registration successful",
		Message: "please confirm your email address to complete the registration",
	})
}

func (h *AccountHandler) confirmEmail(c *gin.Context) {
	var req ConfirmEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid confirmation payload"))
		return
	}

	if err := h.accounts.ConfirmEmail(c.Request.Context(), req.Email, req.Token); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
			{Err: usecase.ErrInvalidToken, Status: http.StatusBadRequest, Message: "invalid token, please try again"},
		}, http.StatusInternalServerError, "email confirmation failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Title:   "email confirmed",
		Message: "your email address has been confirmed, you can now log in",
	})
}

func (h *AccountHandler) resendConfirmationLink(c *gin.Context) {
	email := c.Param("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	if err := h.accounts.ResendConfirmation(c.Request.Context(), email); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
			{Err: usecase.ErrEmailAlreadyConfirmed, Status: http.StatusBadRequest, Message: "email address is already confirmed"},
			{Err: usecase.ErrDeliveryFailed, Status: http.StatusBadGateway, Message: "failed to send email, please contact admin"},
		}, http.StatusInternalServerError, "resend confirmation failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Title:   "confirmation link sent",
		Message: "a new confirmation link has been sent to your email address",
	})
}

func (h *AccountHandler) requestPasswordReset(c *gin.Context) {
	email := c.Param("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	if err := h.accounts.RequestPasswordReset(c.Request.Context(), email); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
			{Err: usecase.ErrEmailUnconfirmed, Status: http.StatusUnauthorized, Message: "please confirm your email"},
			{Err: usecase.ErrDeliveryFailed, Status: http.StatusBadGateway, Message: "failed to send email, please contact admin"},
		}, http.StatusInternalServerError, "password reset request failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Title:   "password reset requested",
		Message: "your username and a password reset link have been sent to your email address",
	})
}

func (h *AccountHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset payload"))
		return
	}

	if err := h.accounts.ResetPassword(c.Request.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		if errors.Is(err, usecase.ErrValidationFailed) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
			{Err: usecase.ErrEmailUnconfirmed, Status: http.StatusUnauthorized, Message: "please confirm your email"},
			{Err: usecase.ErrInvalidToken, Status: http.StatusBadRequest, Message: "invalid token, please try again"},
		}, http.StatusInternalServerError, "password reset failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Title:   "password reset",
		Message: "your password has been reset, you can now log in",
	})
}

func (h *AccountHandler) refreshUserToken(c *gin.Context) {
	email := middleware.AccountEmail(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "missing account identity"))
		return
	}

	authed, err := h.accounts.RefreshSession(c.Request.Context(), email)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "token refresh failed")
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		FirstName: authed.Account.FirstName,
		LastName:  authed.Account.LastName,
		JWT:       authed.SessionToken,
	})
}
