package api

import (
	"fmt"

	"github.com/denzelpenzel/rewear/internal/models"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// createItemHandler handles listing creation
func (s *Server) createItemHandler(ctx *fasthttp.RequestCtx) {
	user, ok := s.currentUser(ctx)
	if !ok {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid user context")
		return
	}

	var req models.ItemCreate
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	if err := validateItemCreate(&req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	item, err := s.itemService.CreateItem(ctx, user, &req)
	if err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, item)
}

// listItemsHandler handles catalog browsing with optional category filter
// and skip/limit pagination
func (s *Server) listItemsHandler(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	category := string(args.Peek("category"))

	limit := args.GetUintOrZero("limit")
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	skip := args.GetUintOrZero("skip")

	items, err := s.itemService.ListItems(ctx, category, limit, skip)
	if err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, items)
}

// featuredItemsHandler returns the most recent listings for the carousel
func (s *Server) featuredItemsHandler(ctx *fasthttp.RequestCtx) {
	items, err := s.itemService.FeaturedItems(ctx)
	if err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, items)
}

// getItemHandler returns a single listing by id
func (s *Server) getItemHandler(ctx *fasthttp.RequestCtx) {
	itemID, err := pathID(ctx, "id")
	if err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := s.itemService.GetItem(ctx, itemID)
	if err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, item)
}

// userItemsHandler returns all of a user's listings
func (s *Server) userItemsHandler(ctx *fasthttp.RequestCtx) {
	userID, err := pathID(ctx, "user_id")
	if err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, "Invalid user ID")
		return
	}

	items, err := s.itemService.ListByOwner(ctx, userID)
	if err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, items)
}

// pathID extracts a UUID route parameter
func pathID(ctx *fasthttp.RequestCtx, name string) (uuid.UUID, error) {
	raw, _ := ctx.UserValue(name).(string)
	return uuid.Parse(raw)
}

// validateItemCreate checks field presence. Category/type/size/condition
// values themselves come from the client and are stored as-is.
func validateItemCreate(req *models.ItemCreate) error {
	required := map[string]string{
		"title":       req.Title,
		"description": req.Description,
		"category":    req.Category,
		"type":        req.Type,
		"size":        req.Size,
		"condition":   req.Condition,
	}

	for field, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", field)
		}
	}

	if req.PointsValue < 0 {
		return fmt.Errorf("points_value must not be negative")
	}

	return nil
}
