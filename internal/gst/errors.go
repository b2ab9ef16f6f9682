package gst

import "errors"

// ErrInvalidLineItem marks a line that fails the caller contract and must be
// rejected before any tax computation happens.
var ErrInvalidLineItem = errors.New("invalid line item")
