package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrAlreadyRegistered = fmt.Errorf("username already registered")
	ErrInvalidUsername   = fmt.Errorf("invalid username")
	ErrEmptyKeyword      = fmt.Errorf("empty search keyword")
)
