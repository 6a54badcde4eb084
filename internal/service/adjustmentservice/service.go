package adjustmentservice

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/form"
	"invadjust/internal/pkg/logger"
)

// Paginação da listagem de ajustes.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AdjustmentRepository define o contrato que o Serviço de Ajustes espera da camada de Persistência.
type AdjustmentRepository interface {
	Save(ctx context.Context, adj domain.InventoryAdjustment) (domain.InventoryAdjustment, domain.ProductVariant, error)
	FindAll(ctx context.Context, filter domain.AdjustmentFilter) ([]domain.InventoryAdjustment, int, error)
}

// VariantService resolve variantes para o formulário e invalida o cache após a gravação.
type VariantService interface {
	form.VariantLookup
	InvalidateVariant(ctx context.Context, id string)
}

// AlertEvaluator abre alertas de estoque a partir do novo nível da variante.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, variant domain.ProductVariant) ([]domain.StockAlert, error)
}

// Service orquestra validação, gravação e efeitos posteriores de um ajuste de estoque.
type Service struct {
	repo     AdjustmentRepository
	variants VariantService
	alerts   AlertEvaluator
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Ajustes.
func NewService(repo AdjustmentRepository, variants VariantService, alerts AlertEvaluator, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		variants: variants,
		alerts:   alerts,
		logger:   log,
	}
}

// ValidateAdjustment roda o formulário sem gravar nada.
// Um formulário inválido vira um apperror.FormError com os erros por campo.
func (s *Service) ValidateAdjustment(ctx context.Context, data form.Submission) (form.CleanedData, error) {
	f, err := s.validate(ctx, data)
	if err != nil {
		return form.CleanedData{}, err
	}
	return f.CleanedData(), nil
}

func (s *Service) validate(ctx context.Context, data form.Submission) (*form.AdjustmentForm, error) {
	f := form.New(data, s.variants)
	valid, err := f.IsValid(ctx)
	if err != nil {
		s.logger.Error("Falha ao validar formulário de ajuste.", err)
		return nil, err
	}
	if !valid {
		s.logger.Debug("Formulário de ajuste inválido.", map[string]interface{}{"errors": f.Errors()})
		return nil, apperror.NewFormError(f.Errors())
	}
	return f, nil
}

// CreateAdjustment valida a submissão e grava o ajuste em nome de createdBy.
func (s *Service) CreateAdjustment(ctx context.Context, data form.Submission, createdBy string) (domain.InventoryAdjustment, error) {
	f, err := s.validate(ctx, data)
	if err != nil {
		return domain.InventoryAdjustment{}, err
	}

	adj, err := f.Instance(createdBy)
	if err != nil {
		return domain.InventoryAdjustment{}, err
	}

	saved, variant, err := s.repo.Save(ctx, adj)
	if err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			// O estoque mudou entre a validação e o bloqueio da linha.
			return domain.InventoryAdjustment{}, apperror.NewFormError(map[string][]string{
				form.FieldQuantity: {form.RemoveExceedsStockMessage(insufficient.Requested, insufficient.Available)},
			})
		}
		return domain.InventoryAdjustment{}, err
	}

	s.variants.InvalidateVariant(ctx, variant.ID)

	// O ajuste já foi gravado; falha nos alertas não desfaz a operação.
	if _, err := s.alerts.Evaluate(ctx, variant); err != nil {
		s.logger.Error("Falha ao avaliar alertas de estoque.", err)
	}

	s.logger.Info("Ajuste de estoque criado.", map[string]interface{}{
		"adjustment_id":   saved.ID,
		"variant_id":      saved.VariantID,
		"adjustment_type": saved.AdjustmentType,
		"new_stock":       saved.NewStock,
		"created_by":      createdBy,
	})
	return saved, nil
}

// ListAdjustments devolve uma página de ajustes, mais recentes primeiro.
func (s *Service) ListAdjustments(ctx context.Context, filter domain.AdjustmentFilter) (domain.AdjustmentPage, error) {
	if filter.VariantID != "" {
		if _, err := uuid.Parse(filter.VariantID); err != nil {
			return domain.AdjustmentPage{}, apperror.NewValidationError("variant_id deve ser um UUID válido.")
		}
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return domain.AdjustmentPage{}, apperror.NewValidationError("adjustment_type deve ser add, remove ou set.")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultPageSize
	case filter.Limit > MaxPageSize:
		filter.Limit = MaxPageSize
	}

	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return domain.AdjustmentPage{}, err
	}
	return domain.AdjustmentPage{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
