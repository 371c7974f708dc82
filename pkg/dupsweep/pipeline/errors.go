package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PreconditionError reports a root that cannot be scanned. It is the only
// error that stops a run before it starts.
type PreconditionError struct {
	Root string
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("invalid root %q: %v", e.Root, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// ErrNotDirectory is wrapped by a PreconditionError when the root is a file.
var ErrNotDirectory = errors.New("not a directory")

// ValidateRoot resolves root to an absolute path and checks that it is an
// existing directory.
func ValidateRoot(root string) (string, error) {
	if root == "" {
		return "", &PreconditionError{Root: root, Err: errors.New("empty path")}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &PreconditionError{Root: root, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", &PreconditionError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return "", &PreconditionError{Root: root, Err: ErrNotDirectory}
	}

	return abs, nil
}

// IsPrecondition reports whether err is a *PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
