package nodes

import (
	"errors"
	"fmt"
)

// ErrIntegrity is the sentinel wrapped by every IntegrityError.
var ErrIntegrity = errors.New("nodes: tree integrity violation")

// Code classifies an integrity violation.
type Code string

const (
	CodeEmpty           Code = "empty"
	CodeInvalidID       Code = "invalid_id"
	CodeIDMismatch      Code = "id_mismatch"
	CodeMissingType     Code = "missing_type"
	CodeMissingRoot     Code = "missing_root"
	CodeRootHasParent   Code = "root_has_parent"
	CodeMultipleRoots   Code = "multiple_roots"
	CodeDanglingParent  Code = "dangling_parent"
	CodeDanglingChild   Code = "dangling_child"
	CodeParentMismatch  Code = "parent_mismatch"
	CodeDuplicateChild  Code = "duplicate_child"
	CodeCanvasViolation Code = "canvas_violation"
	CodeCycle           Code = "cycle"
	CodeOrphan          Code = "orphan"
	CodeTypeChanged     Code = "type_changed"
	CodeSchema          Code = "schema"
	CodeUnknownType     Code = "unknown_component"
	CodeUnknownProp     Code = "unknown_prop"
)

// IntegrityError reports the first violation found in a tree.
type IntegrityError struct {
	NodeID string
	Code   Code
	Detail string
}

func (e *IntegrityError) Error() string {
	if e == nil {
		return ErrIntegrity.Error()
	}
	msg := fmt.Sprintf("nodes: %s", e.Code)
	if e.NodeID != "" {
		msg += fmt.Sprintf(" at node %q", e.NodeID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}

func violation(id string, code Code, format string, args ...any) *IntegrityError {
	return &IntegrityError{NodeID: id, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// AsIntegrityError extracts an IntegrityError from err.
func AsIntegrityError(err error) (*IntegrityError, bool) {
	var target *IntegrityError
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}
