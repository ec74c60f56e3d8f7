package open_slot

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("open_slot: invalid input data")

	// ErrStartInPast возвращается, когда начало слота не в будущем
	ErrStartInPast = errors.New("open_slot: slot must start in the future")

	// ErrSlotOverlap возвращается, когда слот пересекается с другим активным слотом преподавателя
	ErrSlotOverlap = errors.New("open_slot: slot overlaps an existing slot")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("open_slot: internal error")
)
