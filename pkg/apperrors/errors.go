package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrNoKeyHeader         = errors.New("no key column selected")
	ErrMultipleKeyHeaders  = errors.New("more than one key column selected")
	ErrNoEnabledHeaders    = errors.New("no enabled headers")
	ErrEmptySheetData      = errors.New("sheet returned no data rows")
	ErrAllStrategiesFailed = errors.New("all fetch methods failed")
	ErrUnknownSheet        = errors.New("sheet name not in cached sheet list")
)
