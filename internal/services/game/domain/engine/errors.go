package engine

import (
	"errors"

	apperrors "github.com/louisbranch/flatline/internal/platform/errors"
)

var (
	// ErrNotReady is returned for actions submitted before Init completes.
	ErrNotReady = apperrors.New(apperrors.CodeNotReady, "engine is not ready")
	// ErrClosed is returned for actions submitted after Teardown.
	ErrClosed = apperrors.New(apperrors.CodeClosed, "engine is closed")
	// ErrAlreadyInitialized is returned when Init runs twice.
	ErrAlreadyInitialized = errors.New("engine already initialized")
)
