package form

// Errors guarda as mensagens de erro por campo, na ordem em que foram anexadas.
type Errors map[string][]string

// Add anexa msg ao campo.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Has informa se o campo tem ao menos uma mensagem.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// First devolve a primeira mensagem do campo, ou "" se não houver.
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Any informa se algum campo tem erro.
func (e Errors) Any() bool {
	for _, msgs := range e {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}
