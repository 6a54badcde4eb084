package variantservice

import (
	"context"

	"github.com/google/uuid"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/pkg/logger"
)

// VariantRepository define o contrato que o Serviço de Variantes espera da camada de Persistência.
type VariantRepository interface {
	FindByID(ctx context.Context, id string) (domain.ProductVariant, error)
	InvalidateCache(ctx context.Context, id string)
}

type Service struct {
	repo   VariantRepository
	logger logger.Logger
}

func NewService(repo VariantRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// GetVariant busca a variante pelo ID. IDs que não são UUID são rejeitados antes do repositório.
func (s *Service) GetVariant(ctx context.Context, id string) (domain.ProductVariant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ProductVariant{}, apperror.NewValidationError("ID da variante deve ser um UUID válido.")
	}
	return s.repo.FindByID(ctx, id)
}

// InvalidateVariant descarta a variante do cache após uma mudança de estoque.
func (s *Service) InvalidateVariant(ctx context.Context, id string) {
	s.logger.Debug("Invalidando variante no cache.", map[string]interface{}{"variant_id": id})
	s.repo.InvalidateCache(ctx, id)
}
