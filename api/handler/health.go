package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/remindbot/api/transport"
	"github.com/fastygo/remindbot/internal/infrastructure/monitor"
	"github.com/fastygo/remindbot/pkg/httpcontext"
)

// StatusSource is satisfied by *monitor.Monitor.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"services": map[string]interface{}{
			"telegram": status.Telegram,
			"dead_letter": map[string]interface{}{
				"online": status.DeadLetter,
				"size":   status.DeadLetterSize,
			},
		},
		"scheduler": map[string]interface{}{
			"tasks":              status.Tasks,
			"last_tick_at":       status.LastTickAt,
			"last_tick_failures": status.LastTickFailures,
		},
	}

	if status.Telegram && status.DeadLetter {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
