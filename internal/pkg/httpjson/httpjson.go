package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"invadjust/internal/domain"
	apperror "invadjust/internal/errors"
	"invadjust/internal/pkg/logger"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Decode lê o corpo da requisição como um único valor JSON.
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.NewValidationError("O corpo deve conter um único valor JSON.")
	}
	return nil
}

// Write serializa data como JSON com o status informado.
func Write(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("falha ao codificar JSON de resposta: %w", err)
	}
	return nil
}

// WriteError traduz err para o status HTTP e escreve o corpo padronizado (domain.ErrorResponse).
// Erros 5xx são registrados como Error; erros de cliente como Debug.
func WriteError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= http.StatusInternalServerError {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}

	body := domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
		Errors:   apperror.FieldErrors(err),
	}
	if writeErr := Write(w, status, body); writeErr != nil {
		log.Error("Falha ao escrever resposta de erro", writeErr)
	}
}

// Respond escreve data em caso de sucesso ou delega para WriteError.
func Respond(w http.ResponseWriter, r *http.Request, log logger.Logger, data interface{}, err error, successStatus int) {
	if err != nil {
		WriteError(w, r, log, err)
		return
	}
	if writeErr := Write(w, successStatus, data); writeErr != nil {
		log.Error("Falha ao codificar JSON de resposta", writeErr)
	}
}
