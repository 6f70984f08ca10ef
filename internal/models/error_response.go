package models

import (
	"errors"
	"net/http"
)

type ErrorKind string // Категория ошибки

const (
	KindValidation    ErrorKind = "validation"     // Некорректные входные данные
	KindNotFound      ErrorKind = "not_found"      // Объект не найден или недоступен
	KindRuleViolation ErrorKind = "rule_violation" // Нарушено правило жизненного цикла
	KindConflict      ErrorKind = "conflict"       // Конкурентная запись отклонена хранилищем
)

// ErrorResponse описывает ошибку с кодом, категорией и сообщением.
type ErrorResponse struct {
	StatusCode int       `json:"-"`
	Kind       ErrorKind `json:"-"`
	Message    string    `json:"reason"`
}

// NewErrorResponse создает новую ошибку с кодом и сообщением.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Kind:       kindForStatus(statusCode),
		Message:    message}
}

// NewValidationError создает ошибку валидации.
func NewValidationError(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusBadRequest, Kind: KindValidation, Message: message}
}

// NewNotFoundError создает ошибку "не найдено".
func NewNotFoundError(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusNotFound, Kind: KindNotFound, Message: message}
}

// NewRuleViolation создает ошибку нарушения бизнес-правила.
func NewRuleViolation(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusUnprocessableEntity, Kind: KindRuleViolation, Message: message}
}

// NewForbiddenError - нарушение правила владения, отдаётся как 403.
func NewForbiddenError(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusForbidden, Kind: KindRuleViolation, Message: message}
}

// NewConflictError создает ошибку конфликта записи.
func NewConflictError(message string) *ErrorResponse {
	return &ErrorResponse{StatusCode: http.StatusConflict, Kind: KindConflict, Message: message}
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	return e.Message
}

// KindOf возвращает категорию ошибки или пустую строку для инфраструктурных ошибок.
func KindOf(err error) ErrorKind {
	var errResp *ErrorResponse
	if errors.As(err, &errResp) {
		return errResp.Kind
	}
	return ""
}

func kindForStatus(statusCode int) ErrorKind {
	switch statusCode {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusForbidden, http.StatusUnprocessableEntity:
		return KindRuleViolation
	}
	return ""
}
