package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/denzelpenzel/rewear/internal/models"
	"github.com/denzelpenzel/rewear/internal/services"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// userContextKey is where authMiddleware stores the resolved account.
const userContextKey = "user"

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiters tracks per-IP token buckets, one general pool and a
// stricter pool for the credential endpoints.
type ipLimiters struct {
	mu      sync.Mutex
	general map[string]*clientLimiter
	auth    map[string]*clientLimiter
}

func newIPLimiters() *ipLimiters {
	return &ipLimiters{
		general: make(map[string]*clientLimiter),
		auth:    make(map[string]*clientLimiter),
	}
}

func (l *ipLimiters) allow(pool map[string]*clientLimiter, ip string, limit rate.Limit, burst int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, ok := pool[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(limit, burst)}
		pool[ip] = client
	}
	client.lastSeen = time.Now()

	// Drop buckets that have gone quiet
	for addr, c := range pool {
		if time.Since(c.lastSeen) > 30*time.Minute {
			delete(pool, addr)
		}
	}

	return client.limiter.Allow()
}

func (l *ipLimiters) allowGeneral(ip string) bool {
	return l.allow(l.general, ip, rate.Every(time.Second/20), 20)
}

func (l *ipLimiters) allowAuth(ip string) bool {
	return l.allow(l.auth, ip, rate.Every(12*time.Second), 5)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		// Call next handler
		next(ctx)

		duration := time.Since(start)
		s.logger.Info("HTTP request",
			zap.String("method", string(ctx.Method())),
			zap.String("path", string(ctx.Path())),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("duration", duration),
			zap.String("user_agent", string(ctx.UserAgent())),
		)
	}
}

// securityMiddleware adds security headers
func (s *Server) securityMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		// Security headers
		ctx.Response.Header.Set("X-Content-Type-Options", "nosniff")
		ctx.Response.Header.Set("X-Frame-Options", "DENY")
		ctx.Response.Header.Set("X-XSS-Protection", "1; mode=block")
		ctx.Response.Header.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		ctx.Response.Header.Set("Content-Security-Policy", "default-src 'self'")
		ctx.Response.Header.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Remove server information
		ctx.Response.Header.Del("Server")

		next(ctx)
	}
}

// rateLimitMiddleware applies the general per-IP limit.
// Disabled in development.
func (s *Server) rateLimitMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !s.config.IsDevelopment() && !s.limiters.allowGeneral(ctx.RemoteIP().String()) {
			s.sendErrorResponse(ctx, fasthttp.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next(ctx)
	}
}

// authRateLimitMiddleware applies the stricter limit for register/login
func (s *Server) authRateLimitMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !s.config.IsDevelopment() && !s.limiters.allowAuth(ctx.RemoteIP().String()) {
			s.sendErrorResponse(ctx, fasthttp.StatusTooManyRequests, "Authentication rate limit exceeded")
			return
		}
		next(ctx)
	}
}

// authMiddleware validates the bearer token and resolves it to a user record.
// Token failures are 401; a valid token whose account has vanished is 404.
func (s *Server) authMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		// Get Authorization header
		authHeader := string(ctx.Request.Header.Peek("Authorization"))
		if authHeader == "" {
			s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Authorization header required")
			return
		}

		// Check Bearer token format
		if !strings.HasPrefix(authHeader, "Bearer ") {
			s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid authorization format")
			return
		}

		// Extract token
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Token required")
			return
		}

		// Validate token
		claims, err := s.authService.ValidateToken(token)
		if err != nil {
			s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid token")
			return
		}

		// Resolve the token subject to a live user record
		user, err := s.userService.GetUserByID(ctx, claims.UserID)
		if errors.Is(err, services.ErrUserNotFound) {
			s.sendErrorResponse(ctx, fasthttp.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			s.logger.Error("Failed to resolve token subject", zap.Error(err))
			s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}

		ctx.SetUserValue(userContextKey, user)

		next(ctx)
	}
}

// adminMiddleware gates moderation routes; must run inside authMiddleware
func (s *Server) adminMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := s.currentUser(ctx)
		if !ok {
			s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid user context")
			return
		}

		if !user.IsAdmin {
			s.sendErrorResponse(ctx, fasthttp.StatusForbidden, "Admin access required")
			return
		}

		next(ctx)
	}
}

// currentUser returns the account resolved by authMiddleware
func (s *Server) currentUser(ctx *fasthttp.RequestCtx) (*models.User, bool) {
	user, ok := ctx.UserValue(userContextKey).(*models.User)
	return user, ok
}

// sendErrorResponse sends a JSON error response
func (s *Server) sendErrorResponse(ctx *fasthttp.RequestCtx, statusCode int, message string) {
	s.setCORSHeaders(ctx)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(statusCode)

	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	jsonData, _ := json.Marshal(response)
	ctx.SetBody(jsonData)
}

// sendServiceError maps service sentinels onto HTTP statuses
func (s *Server) sendServiceError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrSwapNotFound):
		s.sendErrorResponse(ctx, fasthttp.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrItemUnavailable),
		errors.Is(err, services.ErrOwnItemSwap),
		errors.Is(err, services.ErrInsufficientPoints),
		errors.Is(err, services.ErrInvalidSwapType),
		errors.Is(err, services.ErrSwapSettled):
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, err.Error())
	default:
		s.logger.Error("Unhandled service error", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
	}
}

// sendSuccessResponse sends a JSON success response
func (s *Server) sendSuccessResponse(ctx *fasthttp.RequestCtx, data interface{}) {
	s.setCORSHeaders(ctx)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)

	response := map[string]interface{}{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	jsonData, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("Failed to marshal response", zap.Error(err))
		s.sendErrorResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return
	}

	ctx.SetBody(jsonData)
}

// parseJSONBody parses JSON request body
func (s *Server) parseJSONBody(ctx *fasthttp.RequestCtx, dest interface{}) error {
	if !ctx.IsPost() && !ctx.IsPut() {
		return fmt.Errorf("method not allowed")
	}

	contentType := string(ctx.Request.Header.ContentType())
	if !strings.Contains(contentType, "application/json") {
		return fmt.Errorf("content-type must be application/json")
	}

	body := ctx.PostBody()
	if len(body) == 0 {
		return fmt.Errorf("request body is empty")
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
