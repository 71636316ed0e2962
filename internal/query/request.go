package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Action is what to do with the object collection.
type Action string

const (
	ActionDiscovery Action = "discovery"
	ActionGet       Action = "get"
	ActionCount     Action = "count"
)

// Kind names one of the WSUS object collections.
type Kind string

const (
	KindInfo                  Kind = "info"
	KindStatus                Kind = "status"
	KindDatabase              Kind = "database"
	KindConfiguration         Kind = "configuration"
	KindComputerGroup         Kind = "computergroup"
	KindLastSynchronization   Kind = "lastsynchronization"
	KindSynchronizationStatus Kind = "synchronizationstatus"
)

// Kinds lists every object kind in help order.
var Kinds = []Kind{
	KindInfo,
	KindStatus,
	KindDatabase,
	KindConfiguration,
	KindComputerGroup,
	KindLastSynchronization,
	KindSynchronizationStatus,
}

// Request is one query against the WSUS server.
type Request struct {
	Action Action `validate:"required,oneof=discovery get count"`
	Object Kind   `validate:"required,oneof=info status database configuration computergroup lastsynchronization synchronizationstatus"`
	// Key is a dotted property path; empty means the whole object.
	Key string `validate:"max=512"`
	// ID selects one computer group; nil means all.
	ID     *string `validate:"omitempty,max=256"`
	Pretty bool
}

var validate = validator.New()

// NewRequest normalises action and object names (case-insensitive) and
// validates the result.
func NewRequest(action, object, key string, id *string, pretty bool) (Request, error) {
	req := Request{
		Action: Action(strings.ToLower(strings.TrimSpace(action))),
		Object: Kind(strings.ToLower(strings.TrimSpace(object))),
		Key:    strings.TrimSpace(key),
		ID:     id,
		Pretty: pretty,
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks the request fields.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		msgs = append(msgs, formatValidationMessage(e))
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}

func formatValidationMessage(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s, got %q", field, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}
