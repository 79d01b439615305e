// Package iocli отделяет команды CLI от терминала.
package iocli

//go:generate moq -out io_mock.go . IO

// IO ввод и вывод интерактивного CLI
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	// ReadInput печатает prompt и возвращает строку без пробелов по краям
	ReadInput(prompt string) (string, error)
	// ReadPassword читает пароль без эха, если ввод идет с терминала.
	// Пробелы в пароле сохраняются.
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
