package api

import (
	"context"
	"time"

	"github.com/denzelpenzel/rewear/internal/config"
	"github.com/denzelpenzel/rewear/internal/models"
	"github.com/denzelpenzel/rewear/internal/services"
	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// UserService is the user lookup surface the API depends on
type UserService interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ToUserResponse(user *models.User) *models.UserResponse
}

// AuthService issues and checks credentials
type AuthService interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) error
	GenerateToken(userID uuid.UUID, email string) (string, error)
	ValidateToken(token string) (*services.Claims, error)
}

// ItemService is the listing catalog, including its moderation surface
type ItemService interface {
	CreateItem(ctx context.Context, owner *models.User, in *models.ItemCreate) (*models.Item, error)
	ListItems(ctx context.Context, category string, limit, skip int) ([]models.Item, error)
	FeaturedItems(ctx context.Context) ([]models.Item, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Item, error)
	ListAllItems(ctx context.Context) ([]models.Item, error)
	ApproveItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

// SwapService files and settles swap requests
type SwapService interface {
	CreateSwap(ctx context.Context, requester *models.User, in *models.SwapRequestCreate) (*models.SwapRequest, error)
	AcceptSwap(ctx context.Context, swapID uuid.UUID, owner *models.User) error
	RejectSwap(ctx context.Context, swapID uuid.UUID, owner *models.User) error
	ListIncoming(ctx context.Context, ownerID uuid.UUID) ([]models.SwapRequest, error)
	ListOutgoing(ctx context.Context, requesterID uuid.UUID) ([]models.SwapRequest, error)
}

// Server represents the API server
type Server struct {
	config      *config.Config
	logger      *zap.Logger
	userService UserService
	authService AuthService
	itemService ItemService
	swapService SwapService
	router      *router.Router
	server      *fasthttp.Server
	limiters    *ipLimiters
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	userService UserService,
	authService AuthService,
	itemService ItemService,
	swapService SwapService,
) *Server {
	s := &Server{
		config:      cfg,
		logger:      logger,
		userService: userService,
		authService: authService,
		itemService: itemService,
		swapService: swapService,
		router:      router.New(),
		limiters:    newIPLimiters(),
	}

	// Expose the matched route template for metric labels
	s.router.SaveMatchedRoutePath = true

	s.setupRoutes()
	s.setupServer()

	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GlobalOPTIONS = s.corsHandler

	// Authentication routes; register and login carry a stricter rate limit
	s.router.POST("/api/auth/register", s.withMiddleware(s.authRateLimitMiddleware(s.registerHandler)))
	s.router.POST("/api/auth/login", s.withMiddleware(s.authRateLimitMiddleware(s.loginHandler)))
	s.router.GET("/api/auth/me", s.withMiddleware(s.authMiddleware(s.meHandler)))

	// Catalog routes; reads are public
	s.router.POST("/api/items", s.withMiddleware(s.authMiddleware(s.createItemHandler)))
	s.router.GET("/api/items", s.withMiddleware(s.listItemsHandler))
	s.router.GET("/api/items/featured", s.withMiddleware(s.featuredItemsHandler))
	s.router.GET("/api/items/{id}", s.withMiddleware(s.getItemHandler))
	s.router.GET("/api/items/user/{user_id}", s.withMiddleware(s.userItemsHandler))

	// Swap routes
	s.router.POST("/api/swaps", s.withMiddleware(s.authMiddleware(s.createSwapHandler)))
	s.router.GET("/api/swaps/incoming", s.withMiddleware(s.authMiddleware(s.incomingSwapsHandler)))
	s.router.GET("/api/swaps/outgoing", s.withMiddleware(s.authMiddleware(s.outgoingSwapsHandler)))
	s.router.PUT("/api/swaps/{id}/accept", s.withMiddleware(s.authMiddleware(s.acceptSwapHandler)))
	s.router.PUT("/api/swaps/{id}/reject", s.withMiddleware(s.authMiddleware(s.rejectSwapHandler)))

	// Moderation routes
	s.router.GET("/api/admin/items", s.withMiddleware(s.authMiddleware(s.adminMiddleware(s.adminItemsHandler))))
	s.router.PUT("/api/admin/items/{id}/approve", s.withMiddleware(s.authMiddleware(s.adminMiddleware(s.approveItemHandler))))
	s.router.DELETE("/api/admin/items/{id}", s.withMiddleware(s.authMiddleware(s.adminMiddleware(s.deleteItemHandler))))

	// Operational endpoints
	s.router.GET("/api/health", s.withMiddleware(s.healthHandler))
	s.router.GET("/metrics", metricsHandler)
}

// setupServer configures the FastHTTP server
func (s *Server) setupServer() {
	s.server = &fasthttp.Server{
		Handler:                       s.router.Handler,
		Name:                          "ReWear-API",
		ReadTimeout:                   10 * time.Second,
		WriteTimeout:                  10 * time.Second,
		IdleTimeout:                   60 * time.Second,
		MaxRequestBodySize:            8 * 1024 * 1024, // listings carry inline images
		DisableHeaderNamesNormalizing: true,
		NoDefaultServerHeader:         true,
		NoDefaultDate:                 true,
		NoDefaultContentType:          true,
	}
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("address", s.config.Server.Address),
		zap.String("environment", s.config.Server.Environment))

	return s.server.ListenAndServe(s.config.Server.Address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.ShutdownWithContext(ctx)
}

// withMiddleware wraps handlers with common middleware
func (s *Server) withMiddleware(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return s.loggingMiddleware(
		s.metricsMiddleware(
			s.securityMiddleware(
				s.rateLimitMiddleware(handler),
			),
		),
	)
}

// corsHandler handles CORS preflight requests
func (s *Server) corsHandler(ctx *fasthttp.RequestCtx) {
	s.setCORSHeaders(ctx)
	ctx.SetStatusCode(fasthttp.StatusOK)
}

// setCORSHeaders sets CORS headers
func (s *Server) setCORSHeaders(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	ctx.Response.Header.Set("Access-Control-Max-Age", "86400")
}

// healthHandler handles health check requests
func (s *Server) healthHandler(ctx *fasthttp.RequestCtx) {
	s.setCORSHeaders(ctx)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)

	response := `{"status":"healthy","service":"rewear-api","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`
	ctx.SetBodyString(response)
}
