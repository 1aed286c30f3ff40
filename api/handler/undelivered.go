package handler

import (
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/remindbot/domain"
	"github.com/fastygo/remindbot/internal/infrastructure/deadletter"
	"github.com/fastygo/remindbot/pkg/httpcontext"
)

const (
	defaultUndeliveredLimit = 20
	maxUndeliveredLimit     = 100
)

// UndeliveredSource is satisfied by *deadletter.Store.
type UndeliveredSource interface {
	Recent(owner int64, limit int) ([]deadletter.Entry, error)
}

// UndeliveredHandler shows a user the notifications that never reached them.
type UndeliveredHandler struct {
	baseHandler
	journal UndeliveredSource
}

// NewUndeliveredHandler accepts a nil journal when the dead-letter store is disabled.
func NewUndeliveredHandler(journal UndeliveredSource, adapter *httpcontext.Adapter, logger *zap.Logger) *UndeliveredHandler {
	return &UndeliveredHandler{
		baseHandler: newBaseHandler(adapter, logger),
		journal:     journal,
	}
}

// @Summary List undelivered notifications
// @Tags notifications
// @Router /api/v1/undelivered [get]
func (h *UndeliveredHandler) List(ctx *fasthttp.RequestCtx) {
	owner, ok := h.owner(ctx)
	if !ok {
		return
	}

	limit := defaultUndeliveredLimit
	if raw := ctx.QueryArgs().Peek("limit"); len(raw) > 0 {
		parsed, err := strconv.Atoi(string(raw))
		if err != nil || parsed <= 0 {
			h.respondError(ctx, domain.InvalidFormat("limit must be a positive number", err))
			return
		}
		limit = min(parsed, maxUndeliveredLimit)
	}

	if h.journal == nil {
		h.respondList(ctx, []deadletter.Entry{}, ListMeta{Limit: limit})
		return
	}

	entries, err := h.journal.Recent(owner, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if entries == nil {
		entries = []deadletter.Entry{}
	}
	h.respondList(ctx, entries, ListMeta{Count: len(entries), Limit: limit})
}
