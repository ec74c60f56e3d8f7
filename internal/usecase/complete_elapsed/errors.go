package complete_elapsed

import "errors"

var (
	// ErrInternal возвращается, когда не удалось получить список бронирований
	ErrInternal = errors.New("complete_elapsed: internal error")
)
