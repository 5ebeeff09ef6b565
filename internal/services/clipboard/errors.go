package clipboard

import "errors"

// ErrUnsupported reports that the host has no clipboard utility.
var ErrUnsupported = errors.New("clipboard is not supported on this system")
