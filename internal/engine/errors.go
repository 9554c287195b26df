package engine

import "errors"

var ErrInvalidTransition = errors.New("invalid run state transition")
