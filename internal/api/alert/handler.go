package alert

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/pkg/httpjson"
	"invadjust/internal/pkg/logger"
	"invadjust/internal/pkg/middleware"
)

type AlertService interface {
	ListAlerts(ctx context.Context, includeResolved bool) ([]domain.StockAlert, error)
	ResolveAlert(ctx context.Context, id, resolvedBy string) (domain.StockAlert, error)
}

type Handler struct {
	Service AlertService
	Logger  logger.Logger
}

func NewHandler(svc AlertService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ListAlertsHandler lida com a requisição GET /v1/inventory/alerts.
// @Summary Lista alertas de estoque
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param include_resolved query bool false "Inclui alertas já resolvidos"
// @Success 200 {array} domain.StockAlert
// @Failure 400 {object} domain.ErrorResponse
// @Router /inventory/alerts [get]
func (h *Handler) ListAlertsHandler(w http.ResponseWriter, r *http.Request) {
	includeResolved := false
	if raw := r.URL.Query().Get("include_resolved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpjson.WriteError(w, r, h.Logger, apperror.NewValidationError("include_resolved deve ser true ou false."))
			return
		}
		includeResolved = v
	}

	alerts, err := h.Service.ListAlerts(r.Context(), includeResolved)
	httpjson.Respond(w, r, h.Logger, alerts, err, http.StatusOK)
}

// ResolveAlertHandler lida com a requisição POST /v1/inventory/alerts/{id}/resolve.
// @Summary Resolve um alerta de estoque
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do alerta (UUID)"
// @Success 200 {object} domain.StockAlert
// @Failure 404 {object} domain.ErrorResponse "Alerta não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Alerta já resolvido"
// @Router /inventory/alerts/{id}/resolve [post]
func (h *Handler) ResolveAlertHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, r, h.Logger, apperror.NewUnauthorizedError("Autorização necessária."))
		return
	}

	alert, err := h.Service.ResolveAlert(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	httpjson.Respond(w, r, h.Logger, alert, err, http.StatusOK)
}
