package adjustmentrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/pkg/logger"
)

const adjustmentColumns = `id, variant_id, adjustment_type, quantity, reason, previous_stock, new_stock, created_by, created_at`

// AdjustmentRepository persiste ajustes de estoque e aplica a mutação na variante.
type AdjustmentRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewAdjustmentRepository cria e retorna uma nova instância do Repositório de Ajustes.
func NewAdjustmentRepository(db *sqlx.DB, dbTimeout time.Duration, log logger.Logger) *AdjustmentRepository {
	return &AdjustmentRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// Save aplica o ajuste ao estoque da variante e grava o registro, numa única transação.
// Devolve o ajuste persistido e a variante já atualizada.
func (r *AdjustmentRepository) Save(ctx context.Context, adj domain.InventoryAdjustment) (domain.InventoryAdjustment, domain.ProductVariant, error) {
	r.logger.Debug("Iniciando gravação de ajuste no repositório.", map[string]interface{}{
		"variant_id":      adj.VariantID,
		"adjustment_type": adj.AdjustmentType,
		"quantity":        adj.Quantity,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTxx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de ajuste.", err)
		return domain.InventoryAdjustment{}, domain.ProductVariant{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	// 1. Bloqueia a linha da variante
	var variant domain.ProductVariant
	err = tx.GetContext(ctxTimeout, &variant, `
		SELECT id, product_id, sku, attribute, value, stock, version, created_at, updated_at
		FROM product_variants
		WHERE id = $1 FOR UPDATE`, adj.VariantID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.InventoryAdjustment{}, domain.ProductVariant{}, apperror.NewNotFoundError(fmt.Sprintf("Variante com ID %s não existe na base de dados.", adj.VariantID))
	}
	if err != nil {
		r.logger.Error("Falha ao bloquear variante para ajuste.", err)
		return domain.InventoryAdjustment{}, domain.ProductVariant{}, apperror.NewDBError("Falha ao buscar variante para ajuste", err)
	}

	// 2. Reaplica as regras sobre o estoque bloqueado
	if adj.AdjustmentType == domain.AdjustmentRemove && adj.Quantity > variant.Stock {
		r.logger.Warn("Estoque mudou desde a validação; remoção excede o disponível.", map[string]interface{}{
			"variant_id": adj.VariantID,
			"requested":  adj.Quantity,
			"available":  variant.Stock,
		})
		return domain.InventoryAdjustment{}, domain.ProductVariant{}, &domain.InsufficientStockError{Requested: adj.Quantity, Available: variant.Stock}
	}

	newStock := adj.AdjustmentType.Apply(variant.Stock, adj.Quantity)
	if newStock < 0 {
		r.logger.Warn("Tentativa de ajustar estoque para quantidade negativa.", map[string]interface{}{
			"variant_id":      adj.VariantID,
			"adjustment_type": adj.AdjustmentType,
			"quantity":        adj.Quantity,
		})
		return domain.InventoryAdjustment{}, domain.ProductVariant{}, apperror.NewValidationError("Ajuste resultaria em quantidade de estoque negativa.")
	}

	// 3. Atualiza a variante com OCC
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctxTimeout, `
		UPDATE product_variants
		SET stock = $1, version = $2, updated_at = $3
		WHERE id = $4 AND version = $5`,
		newStock, variant.Version+1, now, variant.ID, variant.Version,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar estoque da variante.", err)
		return domain.InventoryAdjustment{}, domain.ProductVariant{}, apperror.NewDBError("Falha ao atualizar estoque", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.InventoryAdjustment{}, domain.ProductVariant{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Falha no controle de concorrência otimista (OCC).", map[string]interface{}{
			"variant_id":       variant.ID,
			"expected_version": variant.Version,
		})
		return domain.InventoryAdjustment{}, domain.ProductVariant{}, apperror.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
	}

	// 4. Grava o ajuste
	adj.ID = uuid.NewString()
	adj.PreviousStock = variant.Stock
	adj.NewStock = newStock
	adj.CreatedAt = now

	var saved domain.InventoryAdjustment
	err = tx.QueryRowxContext(ctxTimeout, `
		INSERT INTO inventory_adjustments (`+adjustmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+adjustmentColumns,
		adj.ID, adj.VariantID, adj.AdjustmentType, adj.Quantity, adj.Reason,
		adj.PreviousStock, adj.NewStock, adj.CreatedBy, adj.CreatedAt,
	).StructScan(&saved)
	if err != nil {
		r.logger.Error("Falha ao inserir ajuste de estoque.", err)
		return domain.InventoryAdjustment{}, domain.ProductVariant{}, apperror.NewDBError("Falha ao inserir ajuste", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de ajuste.", err)
		return domain.InventoryAdjustment{}, domain.ProductVariant{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	variant.Stock = newStock
	variant.Version++
	variant.UpdatedAt = now

	r.logger.Info("Ajuste de estoque gravado.", map[string]interface{}{
		"adjustment_id":  saved.ID,
		"variant_id":     variant.ID,
		"previous_stock": saved.PreviousStock,
		"new_stock":      saved.NewStock,
		"new_version":    variant.Version,
	})
	return saved, variant, nil
}

// FindAll lista ajustes do mais recente para o mais antigo. Devolve a página e o total.
func (r *AdjustmentRepository) FindAll(ctx context.Context, filter domain.AdjustmentFilter) ([]domain.InventoryAdjustment, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	if filter.VariantID != "" {
		args = append(args, filter.VariantID)
		where = append(where, fmt.Sprintf("variant_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("adjustment_type = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.GetContext(ctxTimeout, &total, "SELECT COUNT(*) FROM inventory_adjustments"+clause, args...); err != nil {
		r.logger.Error("Falha ao contar ajustes.", err)
		return nil, 0, apperror.NewDBError("Falha ao contar ajustes", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf("SELECT %s FROM inventory_adjustments%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		adjustmentColumns, clause, len(args)-1, len(args))

	adjustments := []domain.InventoryAdjustment{}
	if err := r.DB.SelectContext(ctxTimeout, &adjustments, query, args...); err != nil {
		r.logger.Error("Falha ao listar ajustes.", err)
		return nil, 0, apperror.NewDBError("Falha ao listar ajustes", err)
	}

	r.logger.Debug("Ajustes listados.", map[string]interface{}{"count": len(adjustments), "total": total, "page": filter.Page})
	return adjustments, total, nil
}
