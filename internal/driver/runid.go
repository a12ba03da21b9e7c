package driver

import "github.com/google/uuid"

// newRunID returns the identifier attached to every log record of one run.
func newRunID() string {
	return uuid.New().String()
}
