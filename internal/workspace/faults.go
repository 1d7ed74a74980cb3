package workspace

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// FaultKind classifies an access failure so per-item diagnostics can say
// whether a share is missing, the resource is gone, or something else broke.
type FaultKind int

const (
	FaultUnknown FaultKind = iota
	FaultForbidden
	FaultNotFound
)

func (k FaultKind) String() string {
	switch k {
	case FaultForbidden:
		return "forbidden"
	case FaultNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// AccessError wraps a service failure with its classification and the
// resource being touched when it happened.
type AccessError struct {
	Kind     FaultKind
	Resource string
	Err      error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("workspace: %s: %s: %v", e.Resource, e.Kind, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// Classify maps an API error onto a FaultKind. HTTP 403 means the service
// account was never granted access; 404 means the id does not resolve.
func Classify(err error) FaultKind {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusForbidden:
			return FaultForbidden
		case http.StatusNotFound:
			return FaultNotFound
		}
	}
	return FaultUnknown
}

func accessError(resource string, err error) *AccessError {
	return &AccessError{Kind: Classify(err), Resource: resource, Err: err}
}
