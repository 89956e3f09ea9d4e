package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound              = errors.New("entity not found")
	ErrAlreadyExists         = errors.New("entity already exists")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrSignatureMismatch     = errors.New("merchant signature mismatch")
	ErrProviderNotConfigured = errors.New("payment provider is not configured")
	ErrUnknownTemplate       = errors.New("unknown notification template code")
	ErrOperationFailed       = errors.New("storage operation failed")
	ErrInvalidExecContext    = errors.New("invalid SQL execution context")
	ErrReadDatabaseRow       = errors.New("failed to read database row")
)
