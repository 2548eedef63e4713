package api

import (
	"github.com/valyala/fasthttp"
)

// adminItemsHandler returns the unfiltered catalog for moderation
func (s *Server) adminItemsHandler(ctx *fasthttp.RequestCtx) {
	items, err := s.itemService.ListAllItems(ctx)
	if err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, items)
}

// approveItemHandler marks a listing as approved
func (s *Server) approveItemHandler(ctx *fasthttp.RequestCtx) {
	itemID, err := pathID(ctx, "id")
	if err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := s.itemService.ApproveItem(ctx, itemID); err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, map[string]string{"message": "Item approved"})
}

// deleteItemHandler removes a listing
func (s *Server) deleteItemHandler(ctx *fasthttp.RequestCtx) {
	itemID, err := pathID(ctx, "id")
	if err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := s.itemService.DeleteItem(ctx, itemID); err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, map[string]string{"message": "Item deleted"})
}
