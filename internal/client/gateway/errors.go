package gateway

import (
	"errors"

	"github.com/dmitrijs2005/urbannest/internal/common"
)

var (
	ErrNotFound       = common.ErrNotFound
	ErrUnauthorized   = common.ErrUnauthorized
	ErrConflict       = errors.New("conflict")
	ErrSchemaMismatch = errors.New("backend schema mismatch")
	ErrUnavailable    = errors.New("service unavailable")
)
