package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind категория ошибки прогона
type ErrorKind string

const (
	KindSourceUnavailable    ErrorKind = "SourceUnavailable"
	KindDetectionUnavailable ErrorKind = "DetectionUnavailable"
	KindSinkWriteFailure     ErrorKind = "SinkWriteFailure"
	KindCancelled            ErrorKind = "Cancelled"
)

// Error ошибка прогона с категорией и номером кадра (-1, если кадр ни при чём)
type Error struct {
	Kind  ErrorKind
	Frame int
	Err   error
}

func (e *Error) Error() string {
	if e.Frame >= 0 {
		return fmt.Sprintf("%s at frame %d: %v", e.Kind, e.Frame, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, frame int, err error) *Error {
	return &Error{Kind: kind, Frame: frame, Err: err}
}

// KindOf извлекает категорию из цепочки ошибок
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
