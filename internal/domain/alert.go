package domain

import "time"

// AlertType identifica a condição de estoque que gerou o alerta.
type AlertType string

const (
	AlertLowStock   AlertType = "low_stock"
	AlertOutOfStock AlertType = "out_of_stock"
)

// StockAlert é um alerta aberto (ou resolvido) sobre o nível de estoque de uma variante.
// Existe no máximo um alerta aberto por variante e tipo.
type StockAlert struct {
	ID         string     `json:"id" db:"id"`
	VariantID  string     `json:"variant_id" db:"variant_id"`
	AlertType  AlertType  `json:"alert_type" db:"alert_type"`
	Message    string     `json:"message" db:"message"`
	IsResolved bool       `json:"is_resolved" db:"is_resolved"`
	ResolvedBy *string    `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
