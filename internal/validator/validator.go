package validator

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validator is a wrapper around the validator library.
type Validator struct {
	validate *validator.Validate
}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

var (
	defaultOnce sync.Once
	defaultV    *Validator
)

// Default returns a shared Validator. The underlying library caches struct
// metadata per instance, so callers on hot paths should reuse this one.
func Default() *Validator {
	defaultOnce.Do(func() { defaultV = New() })
	return defaultV
}

// ValidateStruct validates a struct based on its tags. Field failures are
// flattened into one message, e.g. "BidCount failed gte=0 (got -1)".
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", fe.Field(), rule, fe.Value()))
	}
	return fmt.Errorf("validation failed: %s: %w", strings.Join(msgs, "; "), err)
}
