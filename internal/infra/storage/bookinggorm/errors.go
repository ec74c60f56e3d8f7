package bookinggorm

import "errors"

var (
	// ErrQuery возвращается при ошибке выполнения запроса GORM
	ErrQuery = errors.New("booking.gorm: query failed")

	// ErrInvalidState возвращается, когда в БД лежит неизвестное состояние
	ErrInvalidState = errors.New("booking.gorm: invalid booking state")

	// ErrUnsupportedDialect возвращается для неизвестного диалекта
	ErrUnsupportedDialect = errors.New("booking.gorm: unsupported dialect")
)
