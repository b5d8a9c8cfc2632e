package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so the pipeline can translate them into domain errors.
//
// - ErrNotFound: entity does not exist in the artifact
// - ErrUnavailable: backing store or cache temporarily unavailable
// - ErrMissingTable: a staged table does not exist
// - ErrEmptyTable: a staged table exists but holds no rows
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrMissingTable = errors.New("staged table missing")
	ErrEmptyTable   = errors.New("staged table empty")
)
