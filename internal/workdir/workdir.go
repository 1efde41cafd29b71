package workdir

import (
	"errors"
	"fmt"
	"os"
)

// RestoreError reports a failure to return to the captured working directory.
type RestoreError struct {
	Dir string
	Err error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore working directory %s: %v", e.Dir, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

// Restore runs fn and resets the working directory to its pre-call value on
// every exit path. A failed reset is returned; when fn failed as well, both
// errors are joined so errors.Is matches either of them.
func Restore(fn func() error) (err error) {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("capture working directory: %w", err)
	}
	defer func() {
		if cdErr := os.Chdir(dir); cdErr != nil {
			err = errors.Join(err, &RestoreError{Dir: dir, Err: cdErr})
		}
	}()
	return fn()
}

// RestoreValue is Restore for operations that produce a value.
func RestoreValue[T any](fn func() (T, error)) (T, error) {
	var out T
	err := Restore(func() error {
		var fnErr error
		out, fnErr = fn()
		return fnErr
	})
	return out, err
}

// Within changes into dir, runs fn and restores the previous directory.
func Within(dir string, fn func() error) error {
	return Restore(func() error {
		if err := os.Chdir(dir); err != nil {
			return err
		}
		return fn()
	})
}
