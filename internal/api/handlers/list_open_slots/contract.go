package list_open_slots

import (
	"context"

	listOpenSlots "github.com/macieste/lesson-booking/internal/usecase/list_open_slots"
)

type ListOpenSlotsUseCase interface {
	Execute(ctx context.Context, req *listOpenSlots.Request) (*listOpenSlots.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
