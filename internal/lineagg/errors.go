package lineagg

import "errors"

// ErrNoRecord is returned by Read when no completed record is queued.
var ErrNoRecord = errors.New("lineagg: no record ready")
