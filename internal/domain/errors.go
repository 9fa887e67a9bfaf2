package domain

import "errors"

var (
	// ErrUnauthenticated - операция требует вошедшего пользователя.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrNotFound - запись не найдена в хранилище.
	ErrNotFound = errors.New("not found")
)

// ValidationError - содержимое отклонено до обращения к хранилищу.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// BackendError оборачивает любую ошибку хранилища. Сообщение отдается пользователю как есть.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string { return e.Err.Error() }

func (e *BackendError) Unwrap() error { return e.Err }
