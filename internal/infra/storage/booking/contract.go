package booking

import (
	"github.com/macieste/lesson-booking/pkg/dbmetrics"
)

// DBExecutor переиспользует интерфейс из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor
