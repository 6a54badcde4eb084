package alertrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/pkg/logger"
)

const alertColumns = `id, variant_id, alert_type, message, is_resolved, resolved_by, resolved_at, created_at`

// AlertRepository persiste os alertas de estoque.
type AlertRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewAlertRepository(db *sqlx.DB, dbTimeout time.Duration, log logger.Logger) *AlertRepository {
	return &AlertRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// GetOrCreateOpen devolve o alerta aberto da variante para o tipo, criando-o se não existir.
// O índice único parcial (variant_id, alert_type) WHERE NOT is_resolved garante um único aberto.
func (r *AlertRepository) GetOrCreateOpen(ctx context.Context, alert domain.StockAlert) (domain.StockAlert, bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	alert.ID = uuid.NewString()
	alert.CreatedAt = time.Now().UTC()

	var saved domain.StockAlert
	err := r.DB.QueryRowxContext(ctxTimeout, `
		INSERT INTO stock_alerts (id, variant_id, alert_type, message, is_resolved, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		ON CONFLICT (variant_id, alert_type) WHERE is_resolved = false DO NOTHING
		RETURNING `+alertColumns,
		alert.ID, alert.VariantID, alert.AlertType, alert.Message, alert.CreatedAt,
	).StructScan(&saved)
	if err == nil {
		r.logger.Debug("Alerta de estoque inserido.", map[string]interface{}{
			"alert_id":   saved.ID,
			"variant_id": saved.VariantID,
			"alert_type": saved.AlertType,
		})
		return saved, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.logger.Error("Falha ao inserir alerta de estoque.", err)
		return domain.StockAlert{}, false, apperror.NewDBError("Falha ao inserir alerta", err)
	}

	// Já existe um alerta aberto.
	err = r.DB.GetContext(ctxTimeout, &saved, `
		SELECT `+alertColumns+`
		FROM stock_alerts
		WHERE variant_id = $1 AND alert_type = $2 AND is_resolved = false`,
		alert.VariantID, alert.AlertType,
	)
	if err != nil {
		r.logger.Error("Falha ao buscar alerta aberto.", err)
		return domain.StockAlert{}, false, apperror.NewDBError("Falha ao buscar alerta aberto", err)
	}
	return saved, false, nil
}

// FindAll lista os alertas, mais recentes primeiro.
func (r *AlertRepository) FindAll(ctx context.Context, includeResolved bool) ([]domain.StockAlert, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + alertColumns + ` FROM stock_alerts`
	if !includeResolved {
		query += ` WHERE is_resolved = false`
	}
	query += ` ORDER BY created_at DESC`

	alerts := []domain.StockAlert{}
	if err := r.DB.SelectContext(ctxTimeout, &alerts, query); err != nil {
		r.logger.Error("Falha ao listar alertas.", err)
		return nil, apperror.NewDBError("Falha ao listar alertas", err)
	}
	return alerts, nil
}

// Resolve marca o alerta como resolvido.
func (r *AlertRepository) Resolve(ctx context.Context, id, resolvedBy string) (domain.StockAlert, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var alert domain.StockAlert
	err := r.DB.QueryRowxContext(ctxTimeout, `
		UPDATE stock_alerts
		SET is_resolved = true, resolved_by = $2, resolved_at = $3
		WHERE id = $1 AND is_resolved = false
		RETURNING `+alertColumns,
		id, resolvedBy, time.Now().UTC(),
	).StructScan(&alert)
	if err == nil {
		r.logger.Info("Alerta de estoque resolvido.", map[string]interface{}{"alert_id": id, "resolved_by": resolvedBy})
		return alert, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.logger.Error("Falha ao resolver alerta.", err)
		return domain.StockAlert{}, apperror.NewDBError("Falha ao resolver alerta", err)
	}

	// Nada foi atualizado: o alerta não existe ou já estava resolvido.
	var exists bool
	if err := r.DB.GetContext(ctxTimeout, &exists, `SELECT EXISTS(SELECT 1 FROM stock_alerts WHERE id = $1)`, id); err != nil {
		r.logger.Error("Falha ao verificar alerta.", err)
		return domain.StockAlert{}, apperror.NewDBError("Falha ao verificar alerta", err)
	}
	if !exists {
		return domain.StockAlert{}, apperror.NewNotFoundError(fmt.Sprintf("Alerta com ID %s não existe.", id))
	}
	return domain.StockAlert{}, apperror.NewConflictError(fmt.Sprintf("Alerta %s já foi resolvido.", id))
}
