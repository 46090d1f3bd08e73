package downloader

import "errors"

// ErrEngineClosed is returned by engine calls made after Close.
var ErrEngineClosed = errors.New("download engine is closed")
