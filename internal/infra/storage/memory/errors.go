package memory

import "errors"

var (
	// ErrDuplicateID возвращается при повторном создании записи с тем же ID
	ErrDuplicateID = errors.New("booking.memory: duplicate booking id")
)
