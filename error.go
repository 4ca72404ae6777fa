package audiograph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycle is the reason of structural errors when a node would
	// become its own transitive input.
	ErrCycle = errors.New("cycle")
	// ErrSelfInput is the reason of structural errors when a node is
	// added as its own input.
	ErrSelfInput = errors.New("node cannot be its own input")
	// ErrForeignEngine is the reason of structural errors when a node
	// is already attached to a different engine.
	ErrForeignEngine = errors.New("node is attached to another engine")
	// ErrNilNode is returned when nil is passed instead of node.
	ErrNilNode = errors.New("nil node")
	// ErrTopology is returned by Verify if live topology doesn't match
	// the graph reachable from the output.
	ErrTopology = errors.New("topology mismatch")
	// ErrInvalidFormat is returned if format has non-positive sample
	// rate or channels.
	ErrInvalidFormat = errors.New("invalid format")
)

// StructuralError is returned when mutation would break the graph
// invariants. The mutation is rejected and graph is left unchanged.
type StructuralError struct {
	Op     string
	Node   Node
	Reason error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, nodeName(e.Node), e.Reason)
}

// Unwrap returns the reason of the error.
func (e *StructuralError) Unwrap() error {
	return e.Reason
}

// IndexOutOfRangeError is returned when input position is outside of
// current bounds. No mutation is performed.
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range [0:%d]", e.Index, e.Len)
}

// EngineStartError is returned when host failed to start. Graph
// topology remains valid and start can be retried.
type EngineStartError struct {
	Err error
}

func (e *EngineStartError) Error() string {
	return fmt.Sprintf("engine start: %v", e.Err)
}

// Unwrap returns the host error.
func (e *EngineStartError) Unwrap() error {
	return e.Err
}

// execErrors wraps errors that might occure when multiple host calls
// are failing during single reconciliation.
type execErrors []error

func (e execErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Is checks if any of errors match provided sentinel error.
func (e execErrors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// ret returns untyped nil if error is list is empty.
func (e execErrors) ret() error {
	if len(e) == 1 {
		return e[0]
	}
	if len(e) > 0 {
		return e
	}
	return nil
}

func nodeName(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.Name() + "-" + n.ID()
}
