package service

import "errors"

// Классы ошибок жизненного цикла. Вызывающий код различает их через
// errors.Is, а не по тексту сообщения.
var (
	// ErrValidation - некорректный или неполный ввод (вина клиента)
	ErrValidation = errors.New("validation error")
	// ErrNotFound - запрошенная запись отсутствует
	ErrNotFound = errors.New("not found")
	// ErrInvalidState - недопустимый переход жизненного цикла
	ErrInvalidState = errors.New("invalid state transition")
	// ErrDependency - сбой хранилища или внешнего сервиса
	ErrDependency = errors.New("dependency failure")
)
