// Package form implementa o formulário de ajuste de estoque: limpeza dos campos enviados,
// resolução da variante e as regras de negócio que cruzam campos.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
)

// Nomes dos campos, iguais às chaves JSON da submissão.
const (
	FieldVariant        = "variant_id"
	FieldAdjustmentType = "adjustment_type"
	FieldQuantity       = "quantity"
	FieldReason         = "reason"
)

// ReasonMaxLength é o tamanho máximo (em caracteres) do motivo.
const ReasonMaxLength = 500

const (
	MsgRequired            = "This field is required."
	MsgInvalidVariant      = "Select a valid choice. That choice is not one of the available choices."
	MsgQuantityNotPositive = "Quantity must be positive for adding or removing stock."

	msgInvalidType        = "Select a valid choice. %s is not one of the available choices."
	msgReasonTooLong      = "Ensure this value has at most %d characters (it has %d)."
	msgRemoveExceedsStock = "Cannot remove %d units. Only %d in stock."
)

// RemoveExceedsStockMessage monta a mensagem de remoção acima do estoque disponível.
func RemoveExceedsStockMessage(quantity, stock int) string {
	return fmt.Sprintf(msgRemoveExceedsStock, quantity, stock)
}

// Submission são os dados brutos enviados pelo usuário.
type Submission struct {
	VariantID      string `json:"variant_id"`
	AdjustmentType string `json:"adjustment_type"`
	Quantity       *int   `json:"quantity"`
	Reason         string `json:"reason"`
}

// CleanedData são os valores que passaram pela limpeza de campos.
// Um campo que falhou fica ausente: Variant nil, AdjustmentType "" ou Quantity nil.
type CleanedData struct {
	Variant        *domain.ProductVariant
	AdjustmentType domain.AdjustmentType
	Quantity       *int
	Reason         string
}

func (d CleanedData) complete() bool {
	return d.Variant != nil && d.AdjustmentType != "" && d.Quantity != nil
}

// VariantLookup resolve o variant_id enviado para a variante persistida.
// Deve devolver um apperror.NotFoundError quando a variante não existe.
type VariantLookup interface {
	GetVariant(ctx context.Context, id string) (domain.ProductVariant, error)
}

// AdjustmentForm é o formulário ligado a uma submissão de ajuste de estoque.
type AdjustmentForm struct {
	data     Submission
	variants VariantLookup

	cleaned CleanedData
	errors  Errors
	done    bool
}

// New liga a submissão ao formulário. Nada é validado até IsValid ou FullClean.
func New(data Submission, variants VariantLookup) *AdjustmentForm {
	return &AdjustmentForm{
		data:     data,
		variants: variants,
		errors:   Errors{},
	}
}

// IsValid executa a limpeza completa (uma única vez) e informa se o formulário não tem erros.
// O erro só é retornado para falhas de infraestrutura ao resolver a variante.
func (f *AdjustmentForm) IsValid(ctx context.Context) (bool, error) {
	if err := f.FullClean(ctx); err != nil {
		return false, err
	}
	return !f.errors.Any(), nil
}

// FullClean limpa cada campo e depois aplica Clean. Chamadas repetidas não refazem o trabalho.
func (f *AdjustmentForm) FullClean(ctx context.Context) error {
	if f.done {
		return nil
	}

	f.errors = Errors{}
	f.cleaned = CleanedData{}
	if err := f.cleanFields(ctx); err != nil {
		return err
	}
	f.cleaned = f.Clean()
	f.done = true
	return nil
}

// cleanFields valida cada campo isoladamente e preenche CleanedData com os que passaram.
func (f *AdjustmentForm) cleanFields(ctx context.Context) error {
	err := validation.ValidateStruct(&f.data,
		validation.Field(&f.data.VariantID,
			validation.Required.Error(MsgRequired),
			is.UUID.Error(MsgInvalidVariant),
		),
		validation.Field(&f.data.AdjustmentType,
			validation.Required.Error(MsgRequired),
			validation.By(validAdjustmentType),
		),
		validation.Field(&f.data.Quantity,
			validation.NotNil.Error(MsgRequired),
		),
		validation.Field(&f.data.Reason,
			validation.By(maxRunes(ReasonMaxLength)),
		),
	)

	var fieldErrs validation.Errors
	switch {
	case err == nil:
	case errors.As(err, &fieldErrs):
		for field, fieldErr := range fieldErrs {
			f.errors.Add(field, fieldErr.Error())
		}
	default:
		return apperror.NewInternalError("Falha ao validar o formulário de ajuste.", err)
	}

	if !f.errors.Has(FieldVariant) {
		variant, err := f.variants.GetVariant(ctx, f.data.VariantID)
		var notFound *apperror.NotFoundError
		switch {
		case err == nil:
			f.cleaned.Variant = &variant
		case errors.As(err, &notFound):
			f.errors.Add(FieldVariant, MsgInvalidVariant)
		default:
			return err
		}
	}
	if !f.errors.Has(FieldAdjustmentType) {
		f.cleaned.AdjustmentType = domain.AdjustmentType(f.data.AdjustmentType)
	}
	if !f.errors.Has(FieldQuantity) {
		quantity := *f.data.Quantity
		f.cleaned.Quantity = &quantity
	}
	if !f.errors.Has(FieldReason) {
		f.cleaned.Reason = strings.TrimSpace(f.data.Reason)
	}
	return nil
}

// Clean aplica as regras que cruzam campos sobre os dados já limpos.
//
// Se variante, tipo ou quantidade estiverem ausentes os dados voltam intactos e nenhum erro
// é anexado. Caso contrário: add/remove exigem quantidade positiva e remove não pode
// exceder o estoque atual. As duas regras são independentes e ambas anexam ao campo quantity.
// Clean não altera o estoque nem persiste nada.
func (f *AdjustmentForm) Clean() CleanedData {
	data := f.cleaned
	if !data.complete() {
		return data
	}

	quantity := *data.Quantity
	typ := data.AdjustmentType

	if (typ == domain.AdjustmentAdd || typ == domain.AdjustmentRemove) && quantity <= 0 {
		f.AddError(FieldQuantity, MsgQuantityNotPositive)
	}

	if typ == domain.AdjustmentRemove && quantity > data.Variant.Stock {
		f.AddError(FieldQuantity, RemoveExceedsStockMessage(quantity, data.Variant.Stock))
	}

	return data
}

// AddError anexa uma mensagem ao campo.
func (f *AdjustmentForm) AddError(field, msg string) {
	if f.errors == nil {
		f.errors = Errors{}
	}
	f.errors.Add(field, msg)
}

// Errors devolve os erros por campo acumulados até aqui.
func (f *AdjustmentForm) Errors() Errors {
	return f.errors
}

// CleanedData devolve os dados limpos (válidos apenas após FullClean).
func (f *AdjustmentForm) CleanedData() CleanedData {
	return f.cleaned
}

// Instance monta o ajuste a ser persistido a partir de um formulário válido.
func (f *AdjustmentForm) Instance(createdBy string) (domain.InventoryAdjustment, error) {
	if !f.done || f.errors.Any() || !f.cleaned.complete() {
		return domain.InventoryAdjustment{}, apperror.NewValidationError("O formulário de ajuste não é válido.")
	}

	return domain.InventoryAdjustment{
		VariantID:      f.cleaned.Variant.ID,
		AdjustmentType: f.cleaned.AdjustmentType,
		Quantity:       *f.cleaned.Quantity,
		Reason:         f.cleaned.Reason,
		PreviousStock:  f.cleaned.Variant.Stock,
		CreatedBy:      createdBy,
	}, nil
}

func validAdjustmentType(value interface{}) error {
	s, _ := value.(string)
	if s == "" || domain.AdjustmentType(s).IsValid() {
		return nil
	}
	return fmt.Errorf(msgInvalidType, s)
}

func maxRunes(max int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if n := utf8.RuneCountInString(s); n > max {
			return fmt.Errorf(msgReasonTooLong, max, n)
		}
		return nil
	}
}
