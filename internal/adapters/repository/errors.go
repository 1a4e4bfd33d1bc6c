package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotLoaded = errors.New("dataset not loaded")
	ErrLoad      = errors.New("dataset load failed")
	ErrDecode    = errors.New("dataset decode failed")
)
