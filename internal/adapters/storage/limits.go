package storage

import (
	"errors"
	"fmt"
	"io"
)

// ErrTooLarge is returned when a payload exceeds the configured cap.
var ErrTooLarge = errors.New("payload exceeds size limit")

// ReadAllWithLimit reads at most maxBytes and fails instead of truncating.
func ReadAllWithLimit(reader io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max bytes must be greater than 0")
	}
	data, err := io.ReadAll(&io.LimitedReader{R: reader, N: maxBytes + 1})
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}
