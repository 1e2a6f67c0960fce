package iqmodule

import "errors"

// ErrInvalidParams reports a calibrated parameter set the module cannot use.
var ErrInvalidParams = errors.New("iqmodule: invalid parameters")
