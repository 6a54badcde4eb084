package variant

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"invadjust/internal/domain"
	"invadjust/internal/pkg/httpjson"
	"invadjust/internal/pkg/logger"
)

type VariantService interface {
	GetVariant(ctx context.Context, id string) (domain.ProductVariant, error)
}

type Handler struct {
	Service VariantService
	Logger  logger.Logger
}

func NewHandler(svc VariantService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// GetVariantHandler lida com a requisição GET /v1/variants/{id}.
// @Summary Busca uma variante
// @Description Retorna a variante com o estoque atual (servida do cache quando possível).
// @Tags variants
// @Produce json
// @Param id path string true "ID da variante (UUID)"
// @Success 200 {object} domain.ProductVariant
// @Failure 400 {object} domain.ErrorResponse "ID inválido"
// @Failure 404 {object} domain.ErrorResponse "Variante não encontrada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /variants/{id} [get]
func (h *Handler) GetVariantHandler(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.GetVariant(r.Context(), chi.URLParam(r, "id"))
	httpjson.Respond(w, r, h.Logger, v, err, http.StatusOK)
}
