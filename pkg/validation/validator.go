package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxExcludedNodes bounds the exclusion list of a decay request
	MaxExcludedNodes = 1024
)

func init() {
	validate = validator.New()
}

// WeightsRequest carries optional cost weights for a path query
type WeightsRequest struct {
	Latency  float64 `json:"latency" validate:"gte=0"`
	Load     float64 `json:"load" validate:"gte=0"`
	Security float64 `json:"security" validate:"gte=0"`
}

// FindPathRequest represents a weighted path query
type FindPathRequest struct {
	Start   *int            `json:"start" validate:"required"`
	End     *int            `json:"end" validate:"required"`
	Weights *WeightsRequest `json:"weights" validate:"omitempty"`
	Trace   bool            `json:"trace"`
}

// RouteRequest represents a hybrid routing request
type RouteRequest struct {
	Source      *int `json:"source" validate:"required"`
	Destination *int `json:"destination" validate:"required"`
}

// EvaporateRequest carries the evaporation rate, which must lie in (0, 1)
type EvaporateRequest struct {
	Rho float64 `json:"rho" validate:"gt=0,lt=1"`
}

// DecayRequest lowers every node's load except the excluded ones
type DecayRequest struct {
	Amount  float64 `json:"amount" validate:"gte=0"`
	Exclude []int   `json:"exclude" validate:"omitempty,max=1024"`
}

// ValidateFindPathRequest validates a path query
func ValidateFindPathRequest(req *FindPathRequest) error {
	if req == nil {
		return errors.New("find path request cannot be nil")
	}
	return Struct(req)
}

// ValidateRouteRequest validates a routing request
func ValidateRouteRequest(req *RouteRequest) error {
	if req == nil {
		return errors.New("route request cannot be nil")
	}
	return Struct(req)
}

// ValidateEvaporateRequest validates an evaporation request
func ValidateEvaporateRequest(req *EvaporateRequest) error {
	if req == nil {
		return errors.New("evaporate request cannot be nil")
	}
	return Struct(req)
}

// ValidateDecayRequest validates a decay request
func ValidateDecayRequest(req *DecayRequest) error {
	if req == nil {
		return errors.New("decay request cannot be nil")
	}
	if err := Struct(req); err != nil {
		return err
	}
	if len(req.Exclude) > MaxExcludedNodes {
		return fmt.Errorf("Exclude: maximum %d nodes allowed, got %d", MaxExcludedNodes, len(req.Exclude))
	}
	return nil
}

// Struct validates any value against its `validate` struct tags and
// returns the first failure in a readable form
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "lt":
			return fmt.Errorf("%s: must be less than %s", field, param)
		case "gtefield":
			return fmt.Errorf("%s: must not be less than %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "dive":
			return fmt.Errorf("%s: invalid element in array", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
