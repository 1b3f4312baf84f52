package blob

import "errors"

var errInvalidKey = errors.New("invalid blob key")
