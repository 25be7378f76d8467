package timeseries

import "errors"

// Sentinel errors for the time-series archive. Check with errors.Is().
var (
	ErrNotConnected     = errors.New("timeseries: not connected")
	ErrConnectionFailed = errors.New("timeseries: connection failed")
	ErrDisabled         = errors.New("timeseries: disabled in configuration")
)
