package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invadjust/internal/api/adjustment"
	"invadjust/internal/api/alert"
	"invadjust/internal/api/router"
	"invadjust/internal/api/user"
	"invadjust/internal/api/variant"
	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/form"
	"invadjust/internal/pkg/logger"
	"invadjust/internal/pkg/middleware"
	"invadjust/internal/pkg/token"
)

// stubVariants guarda as variantes em memória e serve tanto o handler quanto o formulário.
type stubVariants struct {
	byID map[string]domain.ProductVariant
}

func (s *stubVariants) GetVariant(ctx context.Context, id string) (domain.ProductVariant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ProductVariant{}, apperror.NewValidationError("ID da variante deve ser um UUID válido.")
	}
	v, ok := s.byID[id]
	if !ok {
		return domain.ProductVariant{}, apperror.NewNotFoundError("variante " + id)
	}
	return v, nil
}

// stubAdjustments usa o formulário de verdade e guarda os ajustes criados.
type stubAdjustments struct {
	variants *stubVariants
	created  []domain.InventoryAdjustment
}

func (s *stubAdjustments) validate(ctx context.Context, data form.Submission) (*form.AdjustmentForm, error) {
	f := form.New(data, s.variants)
	valid, err := f.IsValid(ctx)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, apperror.NewFormError(f.Errors())
	}
	return f, nil
}

func (s *stubAdjustments) ValidateAdjustment(ctx context.Context, data form.Submission) (form.CleanedData, error) {
	f, err := s.validate(ctx, data)
	if err != nil {
		return form.CleanedData{}, err
	}
	return f.CleanedData(), nil
}

func (s *stubAdjustments) CreateAdjustment(ctx context.Context, data form.Submission, createdBy string) (domain.InventoryAdjustment, error) {
	f, err := s.validate(ctx, data)
	if err != nil {
		return domain.InventoryAdjustment{}, err
	}
	adj, err := f.Instance(createdBy)
	if err != nil {
		return domain.InventoryAdjustment{}, err
	}
	adj.ID = uuid.NewString()
	adj.NewStock = adj.AdjustmentType.Apply(adj.PreviousStock, adj.Quantity)
	s.created = append(s.created, adj)
	return adj, nil
}

func (s *stubAdjustments) ListAdjustments(ctx context.Context, filter domain.AdjustmentFilter) (domain.AdjustmentPage, error) {
	return domain.AdjustmentPage{Items: s.created, Total: len(s.created), Page: filter.Page, Limit: filter.Limit}, nil
}

type stubAlerts struct {
	alerts map[string]domain.StockAlert
}

func (s *stubAlerts) ListAlerts(ctx context.Context, includeResolved bool) ([]domain.StockAlert, error) {
	out := []domain.StockAlert{}
	for _, a := range s.alerts {
		if includeResolved || !a.IsResolved {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubAlerts) ResolveAlert(ctx context.Context, id, resolvedBy string) (domain.StockAlert, error) {
	a, ok := s.alerts[id]
	if !ok {
		return domain.StockAlert{}, apperror.NewNotFoundError("alerta " + id)
	}
	if a.IsResolved {
		return domain.StockAlert{}, apperror.NewConflictError("alerta já resolvido")
	}
	a.IsResolved = true
	a.ResolvedBy = &resolvedBy
	s.alerts[id] = a
	return a, nil
}

type stubUsers struct{}

func (stubUsers) Register(ctx context.Context, reg domain.UserRegistration) (domain.User, error) {
	return domain.User{ID: "u-new", Email: reg.Email, Role: domain.RoleUser}, nil
}

func (stubUsers) Login(ctx context.Context, email, password string) (string, error) {
	return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
}

type testServer struct {
	handler     http.Handler
	tokens      *token.Service
	variant     domain.ProductVariant
	adjustments *stubAdjustments
	alerts      *stubAlerts
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewNop()

	v := domain.ProductVariant{ID: uuid.NewString(), SKU: "TSHIRT-RED-M", Stock: 3, Version: 1}
	variants := &stubVariants{byID: map[string]domain.ProductVariant{v.ID: v}}
	adjustments := &stubAdjustments{variants: variants}
	alertID := uuid.NewString()
	alerts := &stubAlerts{alerts: map[string]domain.StockAlert{
		alertID: {ID: alertID, VariantID: v.ID, AlertType: domain.AlertLowStock},
	}}
	tokens := token.NewService("segredo", time.Hour)

	h := router.NewRouter(router.Handlers{
		User:       user.NewHandler(stubUsers{}, log),
		Variant:    variant.NewHandler(variants, log),
		Adjustment: adjustment.NewHandler(adjustments, log),
		Alert:      alert.NewHandler(alerts, log),
	}, router.Options{
		TokenService:  tokens,
		LoginThrottle: middleware.NewLoginThrottle(1, 2, log),
		Logger:        log,
	})

	return &testServer{handler: h, tokens: tokens, variant: v, adjustments: adjustments, alerts: alerts}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, role string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		tokenString, err := s.tokens.GenerateToken("user-"+role, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tokenString)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) domain.ErrorResponse {
	t.Helper()
	var body domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPing(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/ping", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestInventoryRoutes_RequireStaffOrAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/inventory/adjustments", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/inventory/adjustments", nil, "user")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	for _, role := range []string{"staff", "admin"} {
		rec = s.do(t, http.MethodGet, "/v1/inventory/adjustments", nil, role)
		assert.Equal(t, http.StatusOK, rec.Code, role)
	}
}

func TestValidateAdjustment_FormErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/inventory/adjustments/validate", map[string]interface{}{
		"variant_id":      s.variant.ID,
		"adjustment_type": "remove",
		"quantity":        5,
	}, "staff")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "FORM_ERROR", body.Category)
	assert.Equal(t, map[string][]string{
		"quantity": {"Cannot remove 5 units. Only 3 in stock."},
	}, body.Errors)
}

func TestValidateAdjustment_Valid(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/inventory/adjustments/validate", map[string]interface{}{
		"variant_id":      s.variant.ID,
		"adjustment_type": "set",
		"quantity":        -5,
	}, "staff")

	require.Equal(t, http.StatusOK, rec.Code)
	var body adjustment.ValidationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Valid)
	assert.Equal(t, 3, body.CurrentStock)
	assert.Equal(t, -5, body.Quantity)
}

func TestCreateAdjustment_RecordsAuthor(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/inventory/adjustments", map[string]interface{}{
		"variant_id":      s.variant.ID,
		"adjustment_type": "remove",
		"quantity":        3,
		"reason":          "avaria",
	}, "admin")

	require.Equal(t, http.StatusCreated, rec.Code)
	var adj domain.InventoryAdjustment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &adj))
	assert.Equal(t, "user-admin", adj.CreatedBy)
	assert.Equal(t, 3, adj.PreviousStock)
	assert.Equal(t, 0, adj.NewStock)
	require.Len(t, s.adjustments.created, 1)
}

func TestCreateAdjustment_MalformedJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/inventory/adjustments", bytes.NewBufferString("{"))
	tokenString, err := s.tokens.GenerateToken("user-1", "staff")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Category)
}

func TestListAdjustments_InvalidPage(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/inventory/adjustments?page=abc", nil, "staff")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetVariant(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/variants/"+s.variant.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.ProductVariant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, s.variant.SKU, got.SKU)

	rec = s.do(t, http.MethodGet, "/v1/variants/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/variants/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveAlert(t *testing.T) {
	s := newTestServer(t)
	var alertID string
	for id := range s.alerts.alerts {
		alertID = id
	}

	rec := s.do(t, http.MethodPost, "/v1/inventory/alerts/"+alertID+"/resolve", nil, "staff")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/inventory/alerts/"+alertID+"/resolve", nil, "staff")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/inventory/alerts", nil, "staff")
	require.Equal(t, http.StatusOK, rec.Code)
	var open []domain.StockAlert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &open))
	assert.Empty(t, open)

	rec = s.do(t, http.MethodGet, "/v1/inventory/alerts?include_resolved=true", nil, "staff")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []domain.StockAlert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)
}

func TestLogin_Throttled(t *testing.T) {
	s := newTestServer(t)
	creds := map[string]string{"email": "a@b.com", "password": "x"}

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/v1/login", creds, "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/v1/login", creds, "").Code)

	rec := s.do(t, http.MethodPost, "/v1/login", creds, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
	assert.Equal(t, "RATE_LIMITED", body.Category)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/register", map[string]string{"email": "a@b.com", "password": "segredo123"}, "")

	assert.Equal(t, http.StatusCreated, rec.Code)
}
