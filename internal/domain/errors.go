package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParent = errors.New("invalid parent")
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid state")
	ErrPrecondition  = errors.New("precondition failed")
)

type (
	// InvalidParentError is returned when a child cannot be added under a node.
	InvalidParentError struct {
		ParentID string
		ChildID  string
		Reason   string
	}

	NotFoundError struct {
		ParentID string
		ChildID  string
	}

	InvalidStateError struct {
		NodeID string
		Reason string
	}

	// PreconditionError reports an action invoked without the selection it needs.
	PreconditionError struct {
		Action string
		Reason string
	}
)

func (e *InvalidParentError) Error() string {
	return fmt.Sprintf("cannot add %q under %q: %s", e.ChildID, e.ParentID, e.Reason)
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node %q not found under %q", e.ChildID, e.ParentID)
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("node %q: %s", e.NodeID, e.Reason)
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Reason)
}

func (e *InvalidParentError) Is(target error) bool { return target == ErrInvalidParent }
func (e *NotFoundError) Is(target error) bool      { return target == ErrNotFound }
func (e *InvalidStateError) Is(target error) bool  { return target == ErrInvalidState }
func (e *PreconditionError) Is(target error) bool  { return target == ErrPrecondition }
