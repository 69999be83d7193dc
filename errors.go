package hashmirror

import (
	"errors"
	"fmt"
)

var (
	ErrClosed            = errors.New("hashmirror: cache is closed")
	ErrNamespaceRequired = errors.New("hashmirror: namespace is required")
	ErrNilStore          = errors.New("hashmirror: client provider returned a nil store")
)

// LoadError reports a failed eager load: either fetching the namespace failed, or
// one or more corrupt fields could not be deleted. Open returns it instead of a
// cache; Load returns it with the mirror left as far as it got.
type LoadError struct {
	Namespace string
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("hashmirror: load %q: %v", e.Namespace, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RepairError reports that deleting a corrupt field failed.
type RepairError struct {
	Namespace string
	Key       string
	Err       error
}

func (e *RepairError) Error() string {
	return fmt.Sprintf("hashmirror: delete corrupt %q in %q: %v", e.Key, e.Namespace, e.Err)
}

func (e *RepairError) Unwrap() error { return e.Err }
