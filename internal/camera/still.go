package camera

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// WithTempStill writes frame to a temporary JPEG, calls fn with its path and
// removes the file afterwards, whether or not fn fails
func WithTempStill(frame gocv.Mat, fn func(path string) error) error {
	return withTempFile("eyetrainer-*.jpg", func(path string) error {
		if !gocv.IMWrite(path, frame) {
			return fmt.Errorf("failed to write still to %s", path)
		}
		return nil
	}, fn)
}

func withTempFile(pattern string, write, fn func(path string) error) (err error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return fmt.Errorf("failed to create temp still: %w", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}()

	if err := f.Close(); err != nil {
		return err
	}
	if err := write(path); err != nil {
		return err
	}
	return fn(path)
}
