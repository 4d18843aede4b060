package shared

import "errors"

var (
	ErrNotFound      = errors.New("masterdata: record not found")
	ErrDuplicate     = errors.New("masterdata: duplicate entry")
	ErrValidation    = errors.New("masterdata: validation failed")
	ErrInvalidID     = errors.New("masterdata: invalid ID")
	ErrInUse         = errors.New("masterdata: record is referenced by documents")
	ErrRequiredField = errors.New("masterdata: field is required")
)
