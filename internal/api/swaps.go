package api

import (
	"fmt"

	"github.com/denzelpenzel/rewear/internal/models"
	"github.com/valyala/fasthttp"
)

// createSwapHandler files a swap request against another user's item
func (s *Server) createSwapHandler(ctx *fasthttp.RequestCtx) {
	user, ok := s.currentUser(ctx)
	if !ok {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid user context")
		return
	}

	var req models.SwapRequestCreate
	if err := s.parseJSONBody(ctx, &req); err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	swap, err := s.swapService.CreateSwap(ctx, user, &req)
	if err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, swap)
}

// incomingSwapsHandler lists swap requests against the caller's items
func (s *Server) incomingSwapsHandler(ctx *fasthttp.RequestCtx) {
	user, ok := s.currentUser(ctx)
	if !ok {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid user context")
		return
	}

	swaps, err := s.swapService.ListIncoming(ctx, user.ID)
	if err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, swaps)
}

// outgoingSwapsHandler lists swap requests the caller has filed
func (s *Server) outgoingSwapsHandler(ctx *fasthttp.RequestCtx) {
	user, ok := s.currentUser(ctx)
	if !ok {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid user context")
		return
	}

	swaps, err := s.swapService.ListOutgoing(ctx, user.ID)
	if err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, swaps)
}

// acceptSwapHandler settles a pending swap request the caller owns
func (s *Server) acceptSwapHandler(ctx *fasthttp.RequestCtx) {
	user, ok := s.currentUser(ctx)
	if !ok {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid user context")
		return
	}

	swapID, err := pathID(ctx, "id")
	if err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, "Invalid swap ID")
		return
	}

	if err := s.swapService.AcceptSwap(ctx, swapID, user); err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, map[string]string{"message": "Swap request accepted"})
}

// rejectSwapHandler rejects a pending swap request the caller owns
func (s *Server) rejectSwapHandler(ctx *fasthttp.RequestCtx) {
	user, ok := s.currentUser(ctx)
	if !ok {
		s.sendErrorResponse(ctx, fasthttp.StatusUnauthorized, "Invalid user context")
		return
	}

	swapID, err := pathID(ctx, "id")
	if err != nil {
		s.sendErrorResponse(ctx, fasthttp.StatusBadRequest, "Invalid swap ID")
		return
	}

	if err := s.swapService.RejectSwap(ctx, swapID, user); err != nil {
		s.sendServiceError(ctx, err)
		return
	}

	s.sendSuccessResponse(ctx, map[string]string{"message": "Swap request rejected"})
}
