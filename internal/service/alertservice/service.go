package alertservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/pkg/logger"
)

// AlertRepository define o contrato que o Serviço de Alertas espera da camada de Persistência.
type AlertRepository interface {
	GetOrCreateOpen(ctx context.Context, alert domain.StockAlert) (domain.StockAlert, bool, error)
	FindAll(ctx context.Context, includeResolved bool) ([]domain.StockAlert, error)
	Resolve(ctx context.Context, id, resolvedBy string) (domain.StockAlert, error)
}

// Service abre e resolve alertas de nível de estoque.
type Service struct {
	repo              AlertRepository
	lowStockThreshold int
	logger            logger.Logger
}

func NewService(repo AlertRepository, lowStockThreshold int, log logger.Logger) *Service {
	return &Service{repo: repo, lowStockThreshold: lowStockThreshold, logger: log}
}

// LowStockMessage e OutOfStockMessage montam o texto dos alertas.
func LowStockMessage(sku string, stock int) string {
	return fmt.Sprintf("Low stock alert: %s has %d units remaining", sku, stock)
}

func OutOfStockMessage(sku string) string {
	return fmt.Sprintf("Out of stock alert: %s is out of stock", sku)
}

// Evaluate garante um alerta aberto para cada condição que a variante atende:
// low_stock quando stock <= limite, out_of_stock quando stock == 0.
// Devolve os alertas abertos correspondentes (novos ou já existentes).
func (s *Service) Evaluate(ctx context.Context, variant domain.ProductVariant) ([]domain.StockAlert, error) {
	var wanted []domain.StockAlert
	if variant.Stock <= s.lowStockThreshold {
		wanted = append(wanted, domain.StockAlert{
			VariantID: variant.ID,
			AlertType: domain.AlertLowStock,
			Message:   LowStockMessage(variant.SKU, variant.Stock),
		})
	}
	if variant.Stock == 0 {
		wanted = append(wanted, domain.StockAlert{
			VariantID: variant.ID,
			AlertType: domain.AlertOutOfStock,
			Message:   OutOfStockMessage(variant.SKU),
		})
	}

	alerts := make([]domain.StockAlert, 0, len(wanted))
	for _, a := range wanted {
		alert, created, err := s.repo.GetOrCreateOpen(ctx, a)
		if err != nil {
			return nil, err
		}
		if created {
			s.logger.Info("Alerta de estoque aberto.", map[string]interface{}{
				"variant_id": variant.ID,
				"alert_type": alert.AlertType,
				"stock":      variant.Stock,
			})
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (s *Service) ListAlerts(ctx context.Context, includeResolved bool) ([]domain.StockAlert, error) {
	return s.repo.FindAll(ctx, includeResolved)
}

// ResolveAlert fecha um alerta aberto em nome de resolvedBy.
func (s *Service) ResolveAlert(ctx context.Context, id, resolvedBy string) (domain.StockAlert, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.StockAlert{}, apperror.NewValidationError("ID do alerta deve ser um UUID válido.")
	}
	return s.repo.Resolve(ctx, id, resolvedBy)
}
