package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// FileDevice is a camera backed by an image file on disk. Permission is
// granted when the file is readable.
type FileDevice struct {
	Path string
}

func (d FileDevice) RequestPermission(_ context.Context) (bool, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return false, nil
		}
		return false, err
	}
	return true, f.Close()
}

func (d FileDevice) Capture(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %s is empty", d.Path)
	}
	return data, nil
}
