package osdmap

import "fmt"

// EpochMismatchError is returned by Apply when an increment does not
// build directly on top of the map it is applied to.
type EpochMismatchError struct {
	Have   Epoch
	IncFor Epoch
}

func (e *EpochMismatchError) Error() string {
	return fmt.Sprintf("osdmap: increment for epoch %d does not follow map at epoch %d", e.IncFor, e.Have)
}

// FSIDMismatchError is returned by Apply when an increment targets a
// different cluster instance than the map it is applied to.
type FSIDMismatchError struct {
	Have FSID
	Inc  FSID
}

func (e *FSIDMismatchError) Error() string {
	return "osdmap: increment fsid does not match map fsid"
}
