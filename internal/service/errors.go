package service

import (
	"errors"
	"fmt"
)

var (
	ErrFetchFailed   = errors.New("health data fetch failed")
	ErrPersistFailed = errors.New("persist failed")
	ErrLoadFailed    = errors.New("load failed")
)

type SyncError struct {
	UserID string
	Stage  error
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v: %v", e.UserID, e.Stage, e.Err)
}

func (e *SyncError) Unwrap() []error {
	return []error{e.Stage, e.Err}
}
