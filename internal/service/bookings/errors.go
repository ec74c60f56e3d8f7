package bookings

import "errors"

var (
	// ErrAccessDenied возвращается, когда у пользователя нет прав на операцию
	ErrAccessDenied = errors.New("bookings.service: access denied")

	// ErrSlotOverlap возвращается, когда новое время пересекается с другим слотом преподавателя
	ErrSlotOverlap = errors.New("bookings.service: slot overlaps an existing slot")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("bookings.service: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings.service: internal error")
)
