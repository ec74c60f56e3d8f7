package complete_elapsed

// Result итог одного прогона
type Result struct {
	Found     int // найдено бронирований с наступившим началом
	Completed int // успешно завершено
	Skipped   int // изменены параллельно или уже не подходят
	Failed    int // ошибки хранилища
}
