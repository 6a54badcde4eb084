package variantrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/pkg/cache"
	"invadjust/internal/pkg/logger"
)

// Define a chave de cache para variantes.
const variantCacheKey = "variant:%s"

const selectVariantSQL = `
	SELECT id, product_id, sku, attribute, value, stock, version, created_at, updated_at
	FROM product_variants
	WHERE id = $1`

// VariantRepository lê variantes do PostgreSQL com cache-aside no Redis.
type VariantRepository struct {
	DB        *sqlx.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewVariantRepository cria e retorna uma nova instância do Repositório de Variantes.
func NewVariantRepository(db *sqlx.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *VariantRepository {
	return &VariantRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

// FindByID busca uma variante pelo ID, utilizando a estratégia Cache-Aside.
func (r *VariantRepository) FindByID(ctx context.Context, id string) (domain.ProductVariant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(variantCacheKey, id)
	var variant domain.ProductVariant

	// 1. Cache (READ)
	cached, err := r.Cache.Get(ctxTimeout, key)
	switch {
	case err == nil:
		if json.Unmarshal([]byte(cached), &variant) == nil {
			r.logger.Debug("Variante encontrada no cache.", map[string]interface{}{"variant_id": id})
			return variant, nil
		}
		r.logger.Warn("Entrada de cache corrompida, consultando o DB.", map[string]interface{}{"key": key})
	case errors.Is(err, cache.ErrCacheMiss):
	default:
		r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	// 2. Banco de Dados
	err = r.DB.GetContext(ctxTimeout, &variant, selectVariantSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Variante não encontrada.", map[string]interface{}{"variant_id": id})
		return domain.ProductVariant{}, apperror.NewNotFoundError(fmt.Sprintf("Variante com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar variante no DB.", err)
		return domain.ProductVariant{}, apperror.NewDBError("Falha ao buscar variante", err)
	}

	// 3. Cache (WRITE)
	payload, marshalErr := json.Marshal(variant)
	if marshalErr != nil {
		r.logger.Warn("Falha ao serializar variante para cache.", map[string]interface{}{"variant_id": id})
		return variant, nil
	}
	if setErr := r.Cache.Set(ctxTimeout, key, payload, r.CacheTTL); setErr != nil {
		r.logger.Warn("Falha ao gravar variante no cache.", map[string]interface{}{"variant_id": id, "error": setErr.Error()})
	}

	return variant, nil
}

// InvalidateCache remove a variante do cache. Falhas são só registradas: a entrada expira pelo TTL.
func (r *VariantRepository) InvalidateCache(ctx context.Context, id string) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(variantCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar variante no cache.", map[string]interface{}{"variant_id": id, "error": err.Error()})
	}
}
