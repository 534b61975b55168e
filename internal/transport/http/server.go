// Package http реализует REST-транспорт discussions-сервиса поверх chi.
//
// Слой отвечает только за декодирование/валидацию входа, вызов сервиса и
// сериализацию ответа; бизнес-правила живут в internal/service, маппинг
// ошибок — в apierrors.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/rently-app/discussions-service/internal/service"
)

// Server агрегирует зависимости HTTP-хендлеров.
type Server struct {
	svc *service.Service
}

// NewServer возвращает Server поверх сервисного слоя.
func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// errInvalidArgument — локальная ошибка парсинга входа -> сентинел сервиса.
func errInvalidArgument() error {
	return fmt.Errorf("transport: %w", service.ErrInvalidArgument)
}

// parseUUID разбирает строковый UUID; пустая строка и мусор — ошибка.
func parseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errInvalidArgument()
	}

	return id, nil
}
