package extract

import "errors"

var (
	// ErrMalformedModelOutput indicates a structured reply that is not valid
	// JSON or lacks the required shape.
	ErrMalformedModelOutput = errors.New("malformed model output")
	// ErrIndexOutOfRange indicates an issue anchored to an image that was not submitted.
	ErrIndexOutOfRange = errors.New("image index out of range")
	// ErrUnknownKind indicates no extractor is registered for the kind.
	ErrUnknownKind = errors.New("unknown extraction kind")
)
