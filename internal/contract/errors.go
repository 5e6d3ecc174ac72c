package contract

import "errors"

// Failure categories shared by the store and the coalescing pass.
var (
	// ErrStorageUnavailable means the database could not be reached or a transaction could not start.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrQueryFailure means a select, insert, delete or lock statement failed.
	ErrQueryFailure = errors.New("query failure")

	// ErrPartialWriteObserved means the rows read back after a write do not form the coalesced set.
	ErrPartialWriteObserved = errors.New("partial write observed")

	// ErrRunNotFound means no process row has the requested id.
	ErrRunNotFound = errors.New("run not found")
)
