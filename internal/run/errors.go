package run

import (
	"errors"

	"github.com/samber/oops"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrNotOwner    = errors.New("run belongs to another runner")
)

const (
	codeNotFound   = "RUN_NOT_FOUND"
	codeForbidden  = "RUN_FORBIDDEN"
	codeTransition = "INVALID_TRANSITION"
	codeStorage    = "STORAGE_FAILURE"
)

func wrap(err error, code, runID, message string) error {
	return oops.
		Code(code).
		In("run").
		With("run_id", runID).
		Wrapf(err, "%s", message)
}
