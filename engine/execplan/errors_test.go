package execplan

import "errors"

var errBoom = errors.New("boom")
