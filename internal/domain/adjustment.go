package domain

import (
	"fmt"
	"time"
)

// AdjustmentType é o tipo de mutação de estoque solicitada.
type AdjustmentType string

const (
	AdjustmentAdd    AdjustmentType = "add"
	AdjustmentRemove AdjustmentType = "remove"
	AdjustmentSet    AdjustmentType = "set"
)

// AdjustmentTypes lista os tipos aceitos, na ordem em que são exibidos.
var AdjustmentTypes = []AdjustmentType{AdjustmentAdd, AdjustmentRemove, AdjustmentSet}

// IsValid informa se o tipo é um dos tipos conhecidos.
func (t AdjustmentType) IsValid() bool {
	switch t {
	case AdjustmentAdd, AdjustmentRemove, AdjustmentSet:
		return true
	}
	return false
}

// Apply calcula o novo estoque resultante de aplicar quantity ao estoque atual.
func (t AdjustmentType) Apply(stock, quantity int) int {
	switch t {
	case AdjustmentAdd:
		return stock + quantity
	case AdjustmentRemove:
		return stock - quantity
	case AdjustmentSet:
		return quantity
	}
	return stock
}

// InventoryAdjustment é o registro de um ajuste de estoque feito por um usuário.
type InventoryAdjustment struct {
	ID             string         `json:"id" db:"id"`
	VariantID      string         `json:"variant_id" db:"variant_id"`
	AdjustmentType AdjustmentType `json:"adjustment_type" db:"adjustment_type"`
	Quantity       int            `json:"quantity" db:"quantity"`
	Reason         string         `json:"reason" db:"reason"`
	PreviousStock  int            `json:"previous_stock" db:"previous_stock"`
	NewStock       int            `json:"new_stock" db:"new_stock"`
	CreatedBy      string         `json:"created_by" db:"created_by"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// AdjustmentFilter define os parâmetros de busca e paginação da listagem de ajustes.
type AdjustmentFilter struct {
	VariantID string
	Type      AdjustmentType
	Page      int
	Limit     int
}

// InsufficientStockError é retornado pela persistência quando, com a linha da variante
// bloqueada, o estoque já não cobre a remoção.
type InsufficientStockError struct {
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("estoque insuficiente: solicitado %d, disponível %d", e.Requested, e.Available)
}

// AdjustmentPage é uma página da listagem de ajustes.
type AdjustmentPage struct {
	Items []InventoryAdjustment `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
