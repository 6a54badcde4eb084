package adjustment

import (
	"context"
	"net/http"
	"strconv"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/form"
	"invadjust/internal/pkg/httpjson"
	"invadjust/internal/pkg/logger"
	"invadjust/internal/pkg/middleware"
)

// AdjustmentService define o contrato que o Handler espera da camada de Serviço.
type AdjustmentService interface {
	ValidateAdjustment(ctx context.Context, data form.Submission) (form.CleanedData, error)
	CreateAdjustment(ctx context.Context, data form.Submission, createdBy string) (domain.InventoryAdjustment, error)
	ListAdjustments(ctx context.Context, filter domain.AdjustmentFilter) (domain.AdjustmentPage, error)
}

// ValidationResponse é a resposta do endpoint de validação (dry run).
type ValidationResponse struct {
	Valid          bool                  `json:"valid"`
	VariantID      string                `json:"variant_id"`
	SKU            string                `json:"sku"`
	CurrentStock   int                   `json:"current_stock"`
	AdjustmentType domain.AdjustmentType `json:"adjustment_type"`
	Quantity       int                   `json:"quantity"`
	Reason         string                `json:"reason"`
}

// Handler agrupa os endpoints de ajuste de estoque.
type Handler struct {
	Service AdjustmentService
	Logger  logger.Logger
}

func NewHandler(svc AdjustmentService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ValidateAdjustmentHandler lida com a requisição POST /v1/inventory/adjustments/validate.
// @Summary Valida um ajuste de estoque sem gravá-lo
// @Tags adjustments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param adjustment body form.Submission true "Ajuste a validar"
// @Success 200 {object} ValidationResponse
// @Failure 400 {object} domain.ErrorResponse "Formulário inválido (errors por campo)"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /inventory/adjustments/validate [post]
func (h *Handler) ValidateAdjustmentHandler(w http.ResponseWriter, r *http.Request) {
	var data form.Submission
	if err := httpjson.Decode(w, r, &data); err != nil {
		httpjson.WriteError(w, r, h.Logger, err)
		return
	}

	cleaned, err := h.Service.ValidateAdjustment(r.Context(), data)
	if err != nil {
		httpjson.WriteError(w, r, h.Logger, err)
		return
	}

	resp := ValidationResponse{
		Valid:          true,
		VariantID:      cleaned.Variant.ID,
		SKU:            cleaned.Variant.SKU,
		CurrentStock:   cleaned.Variant.Stock,
		AdjustmentType: cleaned.AdjustmentType,
		Quantity:       *cleaned.Quantity,
		Reason:         cleaned.Reason,
	}
	httpjson.Respond(w, r, h.Logger, resp, nil, http.StatusOK)
}

// CreateAdjustmentHandler lida com a requisição POST /v1/inventory/adjustments.
// @Summary Cria um ajuste de estoque
// @Description Valida e aplica add/remove/set ao estoque da variante, registrando o autor.
// @Tags adjustments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param adjustment body form.Submission true "Ajuste a aplicar"
// @Success 201 {object} domain.InventoryAdjustment
// @Failure 400 {object} domain.ErrorResponse "Formulário inválido (errors por campo)"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Estoque modificado concorrentemente"
// @Failure 500 {object} domain.ErrorResponse
// @Router /inventory/adjustments [post]
func (h *Handler) CreateAdjustmentHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, r, h.Logger, apperror.NewUnauthorizedError("Autorização necessária."))
		return
	}

	var data form.Submission
	if err := httpjson.Decode(w, r, &data); err != nil {
		httpjson.WriteError(w, r, h.Logger, err)
		return
	}

	adj, err := h.Service.CreateAdjustment(r.Context(), data, claims.UserID)
	httpjson.Respond(w, r, h.Logger, adj, err, http.StatusCreated)
}

// ListAdjustmentsHandler lida com a requisição GET /v1/inventory/adjustments.
// @Summary Lista ajustes de estoque
// @Tags adjustments
// @Produce json
// @Security BearerAuth
// @Param variant_id query string false "Filtra por variante"
// @Param adjustment_type query string false "Filtra por tipo (add, remove, set)"
// @Param page query int false "Página (1..)"
// @Param limit query int false "Itens por página (máx. 100)"
// @Success 200 {object} domain.AdjustmentPage
// @Failure 400 {object} domain.ErrorResponse
// @Router /inventory/adjustments [get]
func (h *Handler) ListAdjustmentsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AdjustmentFilter{
		VariantID: q.Get("variant_id"),
		Type:      domain.AdjustmentType(q.Get("adjustment_type")),
	}

	var err error
	if filter.Page, err = intParam(q.Get("page")); err != nil {
		httpjson.WriteError(w, r, h.Logger, apperror.NewValidationError("page deve ser um número inteiro."))
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		httpjson.WriteError(w, r, h.Logger, apperror.NewValidationError("limit deve ser um número inteiro."))
		return
	}

	page, err := h.Service.ListAdjustments(r.Context(), filter)
	httpjson.Respond(w, r, h.Logger, page, err, http.StatusOK)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
