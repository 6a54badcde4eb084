package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int                 `json:"code" example:"400"`
	Category string              `json:"category" example:"FORM_ERROR"`
	Message  string              `json:"message" example:"O formulário contém erros."`
	Errors   map[string][]string `json:"errors,omitempty"`
}
