package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/urbannest/internal/common"
)

var (
	ErrLoginRequired      = errors.New("please sign in first")
	ErrForbidden          = errors.New("not allowed to edit this listing")
	ErrNotOwner           = errors.New("only owners can publish listings")
	ErrConversationClosed = errors.New("no conversation is open")
	ErrEmptyMessage       = errors.New("message is empty")
)

// ValidationError reports an invalid user input. It matches
// common.ErrValidation with errors.Is.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Is(target error) bool {
	return target == common.ErrValidation
}
