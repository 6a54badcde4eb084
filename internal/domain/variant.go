package domain

import "time"

// ProductVariant representa uma configuração comprável de um produto (e.g., tamanho, cor).
// O estoque é controlado a nível de variante.
type ProductVariant struct {
	ID        string    `json:"id" db:"id"`
	ProductID string    `json:"product_id" db:"product_id"`
	SKU       string    `json:"sku" db:"sku"`
	Attribute string    `json:"attribute" db:"attribute"` // Ex: "Cor"
	Value     string    `json:"value" db:"value"`         // Ex: "Vermelho"
	Stock     int       `json:"stock" db:"stock"`
	Version   int       `json:"version" db:"version"` // Para Controle de Concorrência Otimista (OCC)
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
