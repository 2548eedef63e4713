package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/denzelpenzel/rewear/internal/config"
	"github.com/denzelpenzel/rewear/internal/models"
	"github.com/denzelpenzel/rewear/internal/services"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// mockUserService implements UserService; unset funcs fall back to
// simple in-memory behavior.
type mockUserService struct {
	createFn  func(ctx context.Context, email, name, passwordHash string) (*models.User, error)
	byEmailFn func(ctx context.Context, email string) (*models.User, error)
	byIDFn    func(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

func (m *mockUserService) CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, email, name, passwordHash)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Points:       models.StartingPoints,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (m *mockUserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.byEmailFn != nil {
		return m.byEmailFn(ctx, email)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if m.byIDFn != nil {
		return m.byIDFn(ctx, userID)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) ToUserResponse(user *models.User) *models.UserResponse {
	return &models.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Points:    user.Points,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}
}

// mockAuthService implements AuthService
type mockAuthService struct {
	verifyFn   func(password, hash string) error
	validateFn func(token string) (*services.Claims, error)
}

func (m *mockAuthService) HashPassword(password string) (string, error) {
	return "$2a$12$test", nil
}

func (m *mockAuthService) VerifyPassword(password, hash string) error {
	if m.verifyFn != nil {
		return m.verifyFn(password, hash)
	}
	return nil
}

func (m *mockAuthService) GenerateToken(userID uuid.UUID, email string) (string, error) {
	return "test-jwt-token", nil
}

func (m *mockAuthService) ValidateToken(token string) (*services.Claims, error) {
	if m.validateFn != nil {
		return m.validateFn(token)
	}
	return nil, services.ErrInvalidCredentials
}

// mockItemService implements ItemService
type mockItemService struct {
	createFn   func(ctx context.Context, owner *models.User, in *models.ItemCreate) (*models.Item, error)
	listFn     func(ctx context.Context, category string, limit, skip int) ([]models.Item, error)
	featuredFn func(ctx context.Context) ([]models.Item, error)
	getFn      func(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	byOwnerFn  func(ctx context.Context, ownerID uuid.UUID) ([]models.Item, error)
	listAllFn  func(ctx context.Context) ([]models.Item, error)
	approveFn  func(ctx context.Context, itemID uuid.UUID) error
	deleteFn   func(ctx context.Context, itemID uuid.UUID) error
}

func (m *mockItemService) CreateItem(ctx context.Context, owner *models.User, in *models.ItemCreate) (*models.Item, error) {
	if m.createFn != nil {
		return m.createFn(ctx, owner, in)
	}
	return &models.Item{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Type:        in.Type,
		Size:        in.Size,
		Condition:   in.Condition,
		Tags:        in.Tags,
		Images:      in.Images,
		OwnerID:     owner.ID,
		OwnerName:   owner.Name,
		PointsValue: in.PointsValue,
		Status:      models.ItemStatusAvailable,
		Approved:    true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (m *mockItemService) ListItems(ctx context.Context, category string, limit, skip int) ([]models.Item, error) {
	if m.listFn != nil {
		return m.listFn(ctx, category, limit, skip)
	}
	return []models.Item{}, nil
}

func (m *mockItemService) FeaturedItems(ctx context.Context) ([]models.Item, error) {
	if m.featuredFn != nil {
		return m.featuredFn(ctx)
	}
	return []models.Item{}, nil
}

func (m *mockItemService) GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	if m.getFn != nil {
		return m.getFn(ctx, itemID)
	}
	return nil, services.ErrItemNotFound
}

func (m *mockItemService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Item, error) {
	if m.byOwnerFn != nil {
		return m.byOwnerFn(ctx, ownerID)
	}
	return []models.Item{}, nil
}

func (m *mockItemService) ListAllItems(ctx context.Context) ([]models.Item, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return []models.Item{}, nil
}

func (m *mockItemService) ApproveItem(ctx context.Context, itemID uuid.UUID) error {
	if m.approveFn != nil {
		return m.approveFn(ctx, itemID)
	}
	return nil
}

func (m *mockItemService) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, itemID)
	}
	return nil
}

// mockSwapService implements SwapService
type mockSwapService struct {
	createFn   func(ctx context.Context, requester *models.User, in *models.SwapRequestCreate) (*models.SwapRequest, error)
	acceptFn   func(ctx context.Context, swapID uuid.UUID, owner *models.User) error
	rejectFn   func(ctx context.Context, swapID uuid.UUID, owner *models.User) error
	incomingFn func(ctx context.Context, ownerID uuid.UUID) ([]models.SwapRequest, error)
	outgoingFn func(ctx context.Context, requesterID uuid.UUID) ([]models.SwapRequest, error)
}

func (m *mockSwapService) CreateSwap(ctx context.Context, requester *models.User, in *models.SwapRequestCreate) (*models.SwapRequest, error) {
	if m.createFn != nil {
		return m.createFn(ctx, requester, in)
	}
	return &models.SwapRequest{
		ID:            uuid.New(),
		ItemID:        in.ItemID,
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		SwapType:      in.SwapType,
		OfferedItemID: in.OfferedItemID,
		Message:       in.Message,
		Status:        models.SwapStatusPending,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (m *mockSwapService) AcceptSwap(ctx context.Context, swapID uuid.UUID, owner *models.User) error {
	if m.acceptFn != nil {
		return m.acceptFn(ctx, swapID, owner)
	}
	return nil
}

func (m *mockSwapService) RejectSwap(ctx context.Context, swapID uuid.UUID, owner *models.User) error {
	if m.rejectFn != nil {
		return m.rejectFn(ctx, swapID, owner)
	}
	return nil
}

func (m *mockSwapService) ListIncoming(ctx context.Context, ownerID uuid.UUID) ([]models.SwapRequest, error) {
	if m.incomingFn != nil {
		return m.incomingFn(ctx, ownerID)
	}
	return []models.SwapRequest{}, nil
}

func (m *mockSwapService) ListOutgoing(ctx context.Context, requesterID uuid.UUID) ([]models.SwapRequest, error) {
	if m.outgoingFn != nil {
		return m.outgoingFn(ctx, requesterID)
	}
	return []models.SwapRequest{}, nil
}

func newTestServer() *Server {
	return &Server{
		config: &config.Config{
			Server: config.ServerConfig{Environment: "development"},
		},
		logger:      zap.NewNop(),
		userService: &mockUserService{},
		authService: &mockAuthService{},
		itemService: &mockItemService{},
		swapService: &mockSwapService{},
		limiters:    newIPLimiters(),
	}
}

func postJSON(t *testing.T, body interface{}) *fasthttp.RequestCtx {
	t.Helper()

	jsonBody, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("POST")
	ctx.Request.Header.SetContentType("application/json")
	ctx.Request.SetBody(jsonBody)
	return ctx
}

// decodeEnvelope unwraps the standard success envelope
func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	if err := json.Unmarshal(ctx.Response.Body(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response["success"] != true {
		t.Fatalf("Expected success envelope, got %s", ctx.Response.Body())
	}

	data, ok := response["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object data, got %s", ctx.Response.Body())
	}
	return data
}

func TestHealthHandler(t *testing.T) {
	server := newTestServer()

	ctx := &fasthttp.RequestCtx{}
	server.healthHandler(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Errorf("Expected status 200, got %d", ctx.Response.StatusCode())
	}

	var response map[string]interface{}
	if err := json.Unmarshal(ctx.Response.Body(), &response); err != nil {
		t.Errorf("Failed to parse response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
}

func TestRegisterHandler(t *testing.T) {
	server := newTestServer()

	ctx := postJSON(t, models.UserRegistration{
		Email:    "test@example.com",
		Name:     "Test User",
		Password: "SecurePass123",
	})

	server.registerHandler(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	data := decodeEnvelope(t, ctx)

	if data["token"] != "test-jwt-token" {
		t.Errorf("Expected token in response, got %v", data["token"])
	}

	user, ok := data["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected user object, got %v", data["user"])
	}

	// New accounts start with exactly 100 points
	if user["points"] != float64(models.StartingPoints) {
		t.Errorf("Expected %d starting points, got %v", models.StartingPoints, user["points"])
	}

	if _, leaked := user["password_hash"]; leaked {
		t.Error("Password hash leaked in response")
	}
}

func TestRegisterHandlerDuplicateEmail(t *testing.T) {
	server := newTestServer()
	server.userService = &mockUserService{
		createFn: func(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
			return nil, services.ErrEmailTaken
		},
	}

	ctx := postJSON(t, models.UserRegistration{
		Email:    "taken@example.com",
		Name:     "Test User",
		Password: "SecurePass123",
	})

	server.registerHandler(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", ctx.Response.StatusCode())
	}
}

func TestRegisterHandlerValidation(t *testing.T) {
	server := newTestServer()

	tests := []struct {
		name string
		req  models.UserRegistration
	}{
		{
			name: "missing email",
			req:  models.UserRegistration{Name: "Test", Password: "SecurePass123"},
		},
		{
			name: "invalid email",
			req:  models.UserRegistration{Email: "not-an-email", Name: "Test", Password: "SecurePass123"},
		},
		{
			name: "missing name",
			req:  models.UserRegistration{Email: "test@example.com", Password: "SecurePass123"},
		},
		{
			name: "short password",
			req:  models.UserRegistration{Email: "test@example.com", Name: "Test", Password: "short"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := postJSON(t, tt.req)
			server.registerHandler(ctx)

			if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", ctx.Response.StatusCode())
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	server := newTestServer()
	user := &models.User{
		ID:           uuid.New(),
		Email:        "test@example.com",
		Name:         "Test User",
		PasswordHash: "$2a$12$stored",
		Points:       75,
	}
	server.userService = &mockUserService{
		byEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			if email == user.Email {
				return user, nil
			}
			return nil, services.ErrUserNotFound
		},
	}

	ctx := postJSON(t, models.UserLogin{Email: "test@example.com", Password: "SecurePass123"})
	server.loginHandler(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	data := decodeEnvelope(t, ctx)
	if data["token"] != "test-jwt-token" {
		t.Errorf("Expected token in response, got %v", data["token"])
	}
}

func TestLoginHandlerRejectsBadCredentials(t *testing.T) {
	server := newTestServer()

	// Unknown email
	ctx := postJSON(t, models.UserLogin{Email: "nobody@example.com", Password: "SecurePass123"})
	server.loginHandler(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusUnauthorized {
		t.Errorf("Expected status 401 for unknown email, got %d", ctx.Response.StatusCode())
	}

	// Wrong password
	server.userService = &mockUserService{
		byEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: uuid.New(), Email: email, PasswordHash: "$2a$12$stored"}, nil
		},
	}
	server.authService = &mockAuthService{
		verifyFn: func(password, hash string) error {
			return services.ErrInvalidCredentials
		},
	}

	ctx = postJSON(t, models.UserLogin{Email: "test@example.com", Password: "WrongPass123"})
	server.loginHandler(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusUnauthorized {
		t.Errorf("Expected status 401 for wrong password, got %d", ctx.Response.StatusCode())
	}
}

func TestMeHandler(t *testing.T) {
	server := newTestServer()
	user := &models.User{ID: uuid.New(), Email: "test@example.com", Name: "Test User", Points: 125}

	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue(userContextKey, user)
	server.meHandler(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("Expected status 200, got %d", ctx.Response.StatusCode())
	}

	data := decodeEnvelope(t, ctx)
	if data["email"] != user.Email {
		t.Errorf("Expected email %s, got %v", user.Email, data["email"])
	}
	if data["points"] != float64(125) {
		t.Errorf("Expected 125 points, got %v", data["points"])
	}
}

func TestCreateItemHandlerStampsOwner(t *testing.T) {
	server := newTestServer()
	owner := &models.User{ID: uuid.New(), Name: "Test User", Points: 100}

	ctx := postJSON(t, models.ItemCreate{
		Title:       "Denim Jacket",
		Description: "Lightly worn",
		Category:    "tops",
		Type:        "jacket",
		Size:        "M",
		Condition:   "good",
		Tags:        []string{"denim"},
		PointsValue: 25,
	})
	ctx.SetUserValue(userContextKey, owner)

	server.createItemHandler(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	data := decodeEnvelope(t, ctx)
	if data["title"] != "Denim Jacket" {
		t.Errorf("Expected submitted title echoed, got %v", data["title"])
	}
	if data["owner_id"] != owner.ID.String() {
		t.Errorf("Expected owner %s, got %v", owner.ID, data["owner_id"])
	}
	if data["owner_name"] != owner.Name {
		t.Errorf("Expected owner name %s, got %v", owner.Name, data["owner_name"])
	}
	if data["status"] != models.ItemStatusAvailable {
		t.Errorf("Expected status available, got %v", data["status"])
	}
}

func TestCreateItemHandlerValidation(t *testing.T) {
	server := newTestServer()
	owner := &models.User{ID: uuid.New(), Name: "Test User"}

	ctx := postJSON(t, models.ItemCreate{Title: "No category"})
	ctx.SetUserValue(userContextKey, owner)

	server.createItemHandler(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", ctx.Response.StatusCode())
	}
}

func TestListItemsHandlerPagination(t *testing.T) {
	server := newTestServer()

	var gotCategory string
	var gotLimit, gotSkip int
	server.itemService = &mockItemService{
		listFn: func(ctx context.Context, category string, limit, skip int) ([]models.Item, error) {
			gotCategory, gotLimit, gotSkip = category, limit, skip
			return []models.Item{}, nil
		},
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/items?category=tops&skip=40")
	server.listItemsHandler(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("Expected status 200, got %d", ctx.Response.StatusCode())
	}
	if gotCategory != "tops" || gotLimit != defaultPageSize || gotSkip != 40 {
		t.Errorf("Expected (tops, %d, 40), got (%s, %d, %d)", defaultPageSize, gotCategory, gotLimit, gotSkip)
	}

	ctx = &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/items?limit=500")
	server.listItemsHandler(ctx)

	if gotLimit != maxPageSize {
		t.Errorf("Expected limit clamped to %d, got %d", maxPageSize, gotLimit)
	}
}

func TestGetItemHandler(t *testing.T) {
	server := newTestServer()
	itemID := uuid.New()
	server.itemService = &mockItemService{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Item, error) {
			if id == itemID {
				return &models.Item{ID: id, Title: "Denim Jacket", Status: models.ItemStatusPending}, nil
			}
			return nil, services.ErrItemNotFound
		},
	}

	// Invalid id
	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue("id", "not-a-uuid")
	server.getItemHandler(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", ctx.Response.StatusCode())
	}

	// Unknown id
	ctx = &fasthttp.RequestCtx{}
	ctx.SetUserValue("id", uuid.New().String())
	server.getItemHandler(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Errorf("Expected status 404, got %d", ctx.Response.StatusCode())
	}

	// Known id; pending items stay fetchable by id
	ctx = &fasthttp.RequestCtx{}
	ctx.SetUserValue("id", itemID.String())
	server.getItemHandler(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Errorf("Expected status 200, got %d", ctx.Response.StatusCode())
	}
}
