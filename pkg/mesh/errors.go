package mesh

import (
	"errors"
	"fmt"
)

// Mesh operation errors.
var (
	ErrInvalidIndex    = errors.New("face references a vertex outside the vertex buffer")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrAlreadyClosed   = errors.New("mesh has no boundary edges")
	ErrDegenerateHole  = errors.New("boundary loop too small to triangulate")
	ErrNonManifoldEdge = errors.New("edge shared by more than two faces")
)

// NoIndex marks an unset Face or Index field in an OpError.
const NoIndex = -1

// OpError carries the operation name and the offending element of a failed
// or skipped mesh operation.
type OpError struct {
	Op    string // operation, e.g. "AddFace" or "CloseHoles"
	Face  int    // face index, or NoIndex
	Index int    // vertex index, or NoIndex
	Edge  *Edge  // offending edge, if any
	Err   error  // one of the sentinel errors above
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.Face != NoIndex {
		msg += fmt.Sprintf(" face %d", e.Face)
	}
	if e.Index != NoIndex {
		msg += fmt.Sprintf(" index %d", e.Index)
	}
	if e.Edge != nil {
		msg += fmt.Sprintf(" edge %s", e.Edge)
	}
	return msg + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func indexError(op string, face, index int, err error) error {
	return &OpError{Op: op, Face: face, Index: index, Err: err}
}

// EdgeError returns an OpError for a problem located at edge e.
func EdgeError(op string, e Edge, err error) error {
	return &OpError{Op: op, Face: NoIndex, Index: NoIndex, Edge: &e, Err: err}
}

// LoopError returns an OpError for a boundary loop starting at vertex start.
func LoopError(op string, start int, err error) error {
	return &OpError{Op: op, Face: NoIndex, Index: start, Err: err}
}
