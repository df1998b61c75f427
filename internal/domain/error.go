package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrProvisioningFailed = errors.New("provisioning failed")
	ErrRateLimited        = errors.New("rate limited")
)

// ProvisionStepError reports which step of the provisioning chain failed.
// Resources created by earlier steps are left in place.
type ProvisionStepError struct {
	Step string
	Err  error
}

func (e *ProvisionStepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *ProvisionStepError) Unwrap() error { return e.Err }

// Is lets callers match any step failure against ErrProvisioningFailed.
func (e *ProvisionStepError) Is(target error) bool {
	return target == ErrProvisioningFailed
}
