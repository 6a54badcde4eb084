package alertrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/pkg/logger"
	"invadjust/internal/repository/alertrepo"
)

const insertAlertQuery = `INSERT INTO stock_alerts .* ON CONFLICT \(variant_id, alert_type\) WHERE is_resolved = false DO NOTHING`

var alertColumns = []string{"id", "variant_id", "alert_type", "message", "is_resolved", "resolved_by", "resolved_at", "created_at"}

// countingLogger conta as mensagens Info; o resto é descartado.
type countingLogger struct {
	logger.Logger
	infos int
}

func (l *countingLogger) Info(msg string, fields map[string]interface{}) { l.infos++ }

func newRepo(t *testing.T, log logger.Logger) (*alertrepo.AlertRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return alertrepo.NewAlertRepository(sqlx.NewDb(db, "sqlmock"), time.Second, log), mock
}

func TestGetOrCreateOpen_Success_Created(t *testing.T) {
	log := &countingLogger{Logger: logger.NewNop()}
	repo, mock := newRepo(t, log)
	variantID := uuid.NewString()

	mock.ExpectQuery(insertAlertQuery).
		WithArgs(sqlmock.AnyArg(), variantID, "low_stock", "Low stock alert: MUG has 2 units remaining", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(alertColumns).
			AddRow("alert-1", variantID, "low_stock", "Low stock alert: MUG has 2 units remaining", false, nil, nil, time.Now().UTC()))

	alert, created, err := repo.GetOrCreateOpen(context.Background(), domain.StockAlert{
		VariantID: variantID,
		AlertType: domain.AlertLowStock,
		Message:   "Low stock alert: MUG has 2 units remaining",
	})

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alert-1", alert.ID)
	assert.Equal(t, 0, log.infos, "a abertura do alerta é registrada pelo serviço")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Já existe um alerta aberto: o INSERT não devolve linha e o existente é lido.
func TestGetOrCreateOpen_Success_ExistingOpenAlert(t *testing.T) {
	repo, mock := newRepo(t, logger.NewNop())
	variantID := uuid.NewString()

	mock.ExpectQuery(insertAlertQuery).WillReturnRows(sqlmock.NewRows(alertColumns))
	mock.ExpectQuery(`FROM stock_alerts WHERE variant_id = \$1 AND alert_type = \$2 AND is_resolved = false`).
		WithArgs(variantID, "out_of_stock").
		WillReturnRows(sqlmock.NewRows(alertColumns).
			AddRow("alert-antigo", variantID, "out_of_stock", "Out of stock alert: MUG is out of stock", false, nil, nil, time.Now().UTC()))

	alert, created, err := repo.GetOrCreateOpen(context.Background(), domain.StockAlert{
		VariantID: variantID,
		AlertType: domain.AlertOutOfStock,
		Message:   "Out of stock alert: MUG is out of stock",
	})

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "alert-antigo", alert.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_Success(t *testing.T) {
	repo, mock := newRepo(t, logger.NewNop())
	id := uuid.NewString()
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE stock_alerts SET is_resolved = true, resolved_by = \$2, resolved_at = \$3 WHERE id = \$1 AND is_resolved = false`).
		WithArgs(id, "user-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(alertColumns).
			AddRow(id, uuid.NewString(), "low_stock", "msg", true, "user-1", now, now))

	alert, err := repo.Resolve(context.Background(), id, "user-1")

	require.NoError(t, err)
	assert.True(t, alert.IsResolved)
	require.NotNil(t, alert.ResolvedBy)
	assert.Equal(t, "user-1", *alert.ResolvedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_Fail_AlreadyResolved(t *testing.T) {
	repo, mock := newRepo(t, logger.NewNop())
	id := uuid.NewString()

	mock.ExpectQuery(`UPDATE stock_alerts`).WillReturnRows(sqlmock.NewRows(alertColumns))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.Resolve(context.Background(), id, "user-1")

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_Fail_NotFound(t *testing.T) {
	repo, mock := newRepo(t, logger.NewNop())
	id := uuid.NewString()

	mock.ExpectQuery(`UPDATE stock_alerts`).WillReturnRows(sqlmock.NewRows(alertColumns))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.Resolve(context.Background(), id, "user-1")

	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAll_OpenOnly(t *testing.T) {
	repo, mock := newRepo(t, logger.NewNop())

	mock.ExpectQuery(`FROM stock_alerts WHERE is_resolved = false ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows(alertColumns).
			AddRow("alert-1", uuid.NewString(), "low_stock", "msg", false, nil, nil, time.Now().UTC()))

	alerts, err := repo.FindAll(context.Background(), false)

	require.NoError(t, err)
	assert.Len(t, alerts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
