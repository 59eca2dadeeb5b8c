package service

import "errors"

// Виды ошибок сервиса. Конкретные ошибки ниже сопоставляются с ними через errors.Is,
// ошибка без вида считается внутренней.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Ошибки ссылок
var (
	ErrTargetRequired    = newError(ErrValidation, "Long URL is required")
	ErrNewTargetRequired = newError(ErrValidation, "New long URL is required")
	ErrLinkNotFound      = newError(ErrNotFound, "Short URL not found")
	ErrNotLinkOwner      = newError(ErrForbidden, "Not authorized to modify this URL")
	// ErrCodeSpaceExhausted свободный код не найден за отведённое число попыток
	ErrCodeSpaceExhausted = errors.New("could not allocate a free short code")
)

// Ошибки аккаунта
var (
	ErrUserExists         = newError(ErrValidation, "User already exists")
	ErrInvalidToken       = newError(ErrValidation, "Invalid or expired token")
	ErrInvalidCredentials = newError(ErrUnauthorized, "Invalid email or password")
	ErrEmailNotVerified   = newError(ErrForbidden, "Please verify your email to Login")
	ErrAuthRequired       = newError(ErrUnauthorized, "Please log in to continue")
	ErrUserNotFound       = newError(ErrNotFound, "User not found")
	ErrPasswordTooLong    = newError(ErrValidation, "Password must be at most 72 bytes")
)

// maxPasswordBytes предел bcrypt
const maxPasswordBytes = 72

// kindError ошибка с сообщением для клиента, относящаяся к одному из видов
type kindError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}
