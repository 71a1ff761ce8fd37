package orchestrator

import (
	"fmt"

	"github.com/aescanero/dagsys/pkg/domain"
)

// Validator validates blueprint structures
type Validator struct{}

// NewValidator creates a new blueprint validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate re-checks a blueprint before a System is built from it. Build
// already enforces the same rules, but a Blueprint value may have been
// assembled elsewhere.
func (v *Validator) Validate(bp *domain.Blueprint) error {
	if bp == nil {
		return fmt.Errorf("blueprint is nil")
	}

	for _, role := range bp.Roles() {
		if role == "" {
			return fmt.Errorf("role name is required")
		}
	}

	if missing := bp.MissingDependencies(); len(missing) > 0 {
		return &domain.ValidationError{Missing: missing}
	}

	if offending := bp.PassiveWithDependencies(); len(offending) > 0 {
		return &domain.CompositionError{Roles: offending}
	}

	return nil
}
