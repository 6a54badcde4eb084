package form_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/form"
)

// fakeVariants resolve variantes a partir de um mapa em memória.
type fakeVariants struct {
	byID  map[string]domain.ProductVariant
	err   error
	calls int
}

func newFakeVariants(variants ...domain.ProductVariant) *fakeVariants {
	f := &fakeVariants{byID: map[string]domain.ProductVariant{}}
	for _, v := range variants {
		f.byID[v.ID] = v
	}
	return f
}

func (f *fakeVariants) GetVariant(ctx context.Context, id string) (domain.ProductVariant, error) {
	f.calls++
	if f.err != nil {
		return domain.ProductVariant{}, f.err
	}
	v, ok := f.byID[id]
	if !ok {
		return domain.ProductVariant{}, apperror.NewNotFoundError("variante " + id)
	}
	return v, nil
}

func intPtr(i int) *int { return &i }

func variantWithStock(stock int) domain.ProductVariant {
	return domain.ProductVariant{ID: uuid.NewString(), SKU: "TSHIRT-RED-M", Stock: stock, Version: 1}
}

func TestAdjustmentForm_BusinessRules(t *testing.T) {
	tests := []struct {
		name      string
		typ       string
		quantity  int
		stock     int
		wantValid bool
		wantMsgs  []string
	}{
		{"add positivo é válido", "add", 10, 0, true, nil},
		{"add zero é rejeitado", "add", 0, 10, false, []string{form.MsgQuantityNotPositive}},
		{"add negativo é rejeitado", "add", -1, 10, false, []string{form.MsgQuantityNotPositive}},
		{"remove acima do estoque", "remove", 5, 3, false, []string{"Cannot remove 5 units. Only 3 in stock."}},
		{"remove igual ao estoque é válido", "remove", 3, 3, true, nil},
		{"remove abaixo do estoque é válido", "remove", 1, 3, true, nil},
		{"remove zero é rejeitado", "remove", 0, 3, false, []string{form.MsgQuantityNotPositive}},
		{"remove negativo só viola a positividade", "remove", -2, 3, false, []string{form.MsgQuantityNotPositive}},
		{"set negativo não é verificado pelo formulário", "set", -5, 3, true, nil},
		{"set zero é válido", "set", 0, 3, true, nil},
		{"set acima do estoque é válido", "set", 100, 3, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			variant := variantWithStock(tt.stock)
			f := form.New(form.Submission{
				VariantID:      variant.ID,
				AdjustmentType: tt.typ,
				Quantity:       intPtr(tt.quantity),
			}, newFakeVariants(variant))

			valid, err := f.IsValid(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, valid)
			assert.Equal(t, tt.wantMsgs, []string(f.Errors()[form.FieldQuantity]))
		})
	}
}

func TestAdjustmentForm_RemoveOnEmptyStock_BothRulesFire(t *testing.T) {
	// Estoque negativo herdado não deve acontecer, mas se a linha estiver assim as duas regras valem.
	variant := variantWithStock(-1)
	f := form.New(form.Submission{
		VariantID:      variant.ID,
		AdjustmentType: "remove",
		Quantity:       intPtr(0),
	}, newFakeVariants(variant))

	valid, err := f.IsValid(context.Background())

	require.NoError(t, err)
	assert.False(t, valid)
	assert.Equal(t, []string{
		form.MsgQuantityNotPositive,
		"Cannot remove 0 units. Only -1 in stock.",
	}, []string(f.Errors()[form.FieldQuantity]))
	assert.Equal(t, form.MsgQuantityNotPositive, f.Errors().First(form.FieldQuantity))
}

func TestAdjustmentForm_MissingFields_NoBusinessErrors(t *testing.T) {
	variant := variantWithStock(3)

	tests := []struct {
		name      string
		data      form.Submission
		wantField string
	}{
		{
			name:      "sem variante",
			data:      form.Submission{AdjustmentType: "remove", Quantity: intPtr(50)},
			wantField: form.FieldVariant,
		},
		{
			name:      "sem tipo",
			data:      form.Submission{VariantID: variant.ID, Quantity: intPtr(-50)},
			wantField: form.FieldAdjustmentType,
		},
		{
			name:      "sem quantidade",
			data:      form.Submission{VariantID: variant.ID, AdjustmentType: "remove"},
			wantField: form.FieldQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := form.New(tt.data, newFakeVariants(variant))

			valid, err := f.IsValid(context.Background())

			require.NoError(t, err)
			assert.False(t, valid)
			assert.Equal(t, form.Errors{tt.wantField: {form.MsgRequired}}, f.Errors())
		})
	}
}

func TestAdjustmentForm_FieldErrors(t *testing.T) {
	variant := variantWithStock(3)

	tests := []struct {
		name      string
		data      form.Submission
		wantField string
		wantMsg   string
	}{
		{
			name:      "variant_id malformado",
			data:      form.Submission{VariantID: "abc", AdjustmentType: "add", Quantity: intPtr(1)},
			wantField: form.FieldVariant,
			wantMsg:   form.MsgInvalidVariant,
		},
		{
			name:      "variante inexistente",
			data:      form.Submission{VariantID: uuid.NewString(), AdjustmentType: "add", Quantity: intPtr(1)},
			wantField: form.FieldVariant,
			wantMsg:   form.MsgInvalidVariant,
		},
		{
			name:      "tipo desconhecido",
			data:      form.Submission{VariantID: variant.ID, AdjustmentType: "swap", Quantity: intPtr(1)},
			wantField: form.FieldAdjustmentType,
			wantMsg:   "Select a valid choice. swap is not one of the available choices.",
		},
		{
			name: "motivo longo demais",
			data: form.Submission{
				VariantID:      variant.ID,
				AdjustmentType: "add",
				Quantity:       intPtr(1),
				Reason:         strings.Repeat("á", form.ReasonMaxLength+1),
			},
			wantField: form.FieldReason,
			wantMsg:   "Ensure this value has at most 500 characters (it has 501).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := form.New(tt.data, newFakeVariants(variant))

			valid, err := f.IsValid(context.Background())

			require.NoError(t, err)
			assert.False(t, valid)
			assert.Equal(t, form.Errors{tt.wantField: {tt.wantMsg}}, f.Errors())
		})
	}
}

func TestAdjustmentForm_ReasonAtLimitIsAccepted(t *testing.T) {
	variant := variantWithStock(3)
	f := form.New(form.Submission{
		VariantID:      variant.ID,
		AdjustmentType: "add",
		Quantity:       intPtr(1),
		Reason:         "  " + strings.Repeat("x", form.ReasonMaxLength-2) + "  ",
	}, newFakeVariants(variant))

	valid, err := f.IsValid(context.Background())

	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, strings.Repeat("x", form.ReasonMaxLength-2), f.CleanedData().Reason)
}

func TestAdjustmentForm_Fail_LookupError(t *testing.T) {
	variants := newFakeVariants()
	variants.err = apperror.NewDBError("Falha ao buscar variante", errors.New("connection refused"))

	f := form.New(form.Submission{
		VariantID:      uuid.NewString(),
		AdjustmentType: "add",
		Quantity:       intPtr(1),
	}, variants)

	valid, err := f.IsValid(context.Background())

	assert.False(t, valid)
	var internalErr *apperror.InternalError
	assert.ErrorAs(t, err, &internalErr)
	assert.False(t, f.Errors().Any(), "falha de infraestrutura não vira erro de formulário")
	assert.Nil(t, f.CleanedData().Variant)

	// A falha não é memorizada: uma nova chamada consulta a variante de novo.
	variants.err = nil
	_, err = f.IsValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, variants.calls)
}

func TestAdjustmentForm_IsValidCleansOnlyOnce(t *testing.T) {
	variant := variantWithStock(3)
	variants := newFakeVariants(variant)
	f := form.New(form.Submission{
		VariantID:      variant.ID,
		AdjustmentType: "remove",
		Quantity:       intPtr(5),
	}, variants)

	for i := 0; i < 3; i++ {
		valid, err := f.IsValid(context.Background())
		require.NoError(t, err)
		assert.False(t, valid)
	}

	assert.Equal(t, 1, variants.calls)
	assert.Len(t, f.Errors()[form.FieldQuantity], 1)
}

func TestAdjustmentForm_CleanedData(t *testing.T) {
	variant := variantWithStock(7)
	f := form.New(form.Submission{
		VariantID:      variant.ID,
		AdjustmentType: "set",
		Quantity:       intPtr(2),
		Reason:         " contagem física ",
	}, newFakeVariants(variant))

	valid, err := f.IsValid(context.Background())
	require.NoError(t, err)
	require.True(t, valid)

	data := f.CleanedData()
	require.NotNil(t, data.Variant)
	assert.Equal(t, variant, *data.Variant)
	assert.Equal(t, domain.AdjustmentSet, data.AdjustmentType)
	require.NotNil(t, data.Quantity)
	assert.Equal(t, 2, *data.Quantity)
	assert.Equal(t, "contagem física", data.Reason)
}

func TestAdjustmentForm_Instance_Success(t *testing.T) {
	variant := variantWithStock(7)
	f := form.New(form.Submission{
		VariantID:      variant.ID,
		AdjustmentType: "remove",
		Quantity:       intPtr(7),
		Reason:         "avaria",
	}, newFakeVariants(variant))

	valid, err := f.IsValid(context.Background())
	require.NoError(t, err)
	require.True(t, valid)

	adj, err := f.Instance("user-1")

	require.NoError(t, err)
	assert.Equal(t, domain.InventoryAdjustment{
		VariantID:      variant.ID,
		AdjustmentType: domain.AdjustmentRemove,
		Quantity:       7,
		Reason:         "avaria",
		PreviousStock:  7,
		CreatedBy:      "user-1",
	}, adj)
}

func TestAdjustmentForm_Instance_Fail_NotCleaned(t *testing.T) {
	variant := variantWithStock(7)
	f := form.New(form.Submission{
		VariantID:      variant.ID,
		AdjustmentType: "add",
		Quantity:       intPtr(1),
	}, newFakeVariants(variant))

	_, err := f.Instance("user-1")

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestAdjustmentForm_Instance_Fail_Invalid(t *testing.T) {
	variant := variantWithStock(1)
	f := form.New(form.Submission{
		VariantID:      variant.ID,
		AdjustmentType: "remove",
		Quantity:       intPtr(2),
	}, newFakeVariants(variant))

	valid, err := f.IsValid(context.Background())
	require.NoError(t, err)
	require.False(t, valid)

	_, err = f.Instance("user-1")

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRemoveExceedsStockMessage(t *testing.T) {
	assert.Equal(t, "Cannot remove 5 units. Only 3 in stock.", form.RemoveExceedsStockMessage(5, 3))
}
