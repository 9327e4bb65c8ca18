package eutelescope

import "fmt"

// ErrUnknownDataType is returned when a pixel or cluster tag has no codec.
type ErrUnknownDataType struct {
	Kind string
	Tag  int
}

func (e *ErrUnknownDataType) Error() string {
	return fmt.Sprintf("unknown %s data type: %d", e.Kind, e.Tag)
}

// ErrSourceNotFound represents a collection missing from the event.
type ErrSourceNotFound struct {
	Collection string
}

func (e *ErrSourceNotFound) Error() string {
	return fmt.Sprintf("collection %q not found", e.Collection)
}

// ErrMalformedRecord represents a record that cannot be read as expected.
type ErrMalformedRecord struct {
	Collection string
	Index      int
	Reason     string
}

func (e *ErrMalformedRecord) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("malformed record: %s", e.Reason)
	}
	return fmt.Sprintf("malformed record %d in collection %q: %s", e.Index, e.Collection, e.Reason)
}

// ErrInvalidGeometry is reported when a quadratic has no real roots.
type ErrInvalidGeometry struct {
	Discriminant float64
}

func (e *ErrInvalidGeometry) Error() string {
	return fmt.Sprintf("quadratic equation solution is imaginary, discriminant %g < 0", e.Discriminant)
}
