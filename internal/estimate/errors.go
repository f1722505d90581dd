package estimate

import (
	"errors"
	"fmt"
	"strings"
)

// MalformedError reports an estimate missing required fields. It is
// fatal: validation never proceeds on a malformed estimate.
type MalformedError struct {
	EstimateID string
	Missing    []string
}

// Error implements the error interface.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("estimate %s is malformed: missing %s",
		e.EstimateID, strings.Join(e.Missing, ", "))
}

// IsMalformed reports whether err is (or wraps) a MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}
