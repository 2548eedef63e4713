package api

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/denzelpenzel/rewear/internal/models"
	"github.com/denzelpenzel/rewear/internal/services"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// registerHandler handles user registration
func (s *Server) registerHandler(ctx *fasthttp.RequestCtx) {
	var req models.UserRegistration
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Validate input
	if err := s.validateRegistration(&req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	// Hash password
	passwordHash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	// Create user; a duplicate email surfaces as ErrEmailTaken
	user, err := s.userService.CreateUser(ctx, req.Email, req.Name, passwordHash)
	if err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	// Generate JWT token
	token, err := s.authService.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	// Return user data and token
	response := map[string]interface{}{
		"user":  s.userService.ToUserResponse(user),
		"token": token,
	}

	s.sendSuccessResponse(ctx, response)
}

// loginHandler handles user login
func (s *Server) loginHandler(ctx *fasthttp.RequestCtx) {
	var req models.UserLogin
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Validate input
	if err := s.validateLogin(&req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	// Get user by email; an unknown email reads the same as a bad password
	user, err := s.userService.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.logger.Error("Failed to fetch user for login", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	// Verify password
	if err := s.authService.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Generate JWT token
	token, err := s.authService.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	// Return user data and token
	response := map[string]interface{}{
		"user":  s.userService.ToUserResponse(user),
		"token": token,
	}

	s.sendSuccessResponse(ctx, response)
}

// meHandler returns the authenticated user
func (s *Server) meHandler(ctx *fasthttp.RequestCtx) {
	user, ok := s.currentUser(ctx)
	if !ok {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid user context")
		return
	}

	s.sendSuccessResponse(ctx, s.userService.ToUserResponse(user))
}

// validateRegistration validates user registration input
func (s *Server) validateRegistration(req *models.UserRegistration) error {
	if req.Email == "" {
		return fmt.Errorf("email is required")
	}

	if !s.isValidEmail(req.Email) {
		return fmt.Errorf("invalid email format")
	}

	if req.Name == "" {
		return fmt.Errorf("name is required")
	}

	if req.Password == "" {
		return fmt.Errorf("password is required")
	}

	if len(req.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	return nil
}

// validateLogin validates user login input
func (s *Server) validateLogin(req *models.UserLogin) error {
	if req.Email == "" {
		return fmt.Errorf("email is required")
	}

	if !s.isValidEmail(req.Email) {
		return fmt.Errorf("invalid email format")
	}

	if req.Password == "" {
		return fmt.Errorf("password is required")
	}

	return nil
}

// isValidEmail validates email format
func (s *Server) isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}
