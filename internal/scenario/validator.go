package scenario

import (
	"fmt"
	"log/slog"

	"github.com/me/reel/internal/script"
	"github.com/me/reel/pkg/model"
	"github.com/me/reel/pkg/runner"
	"github.com/me/reel/pkg/timeline"
)

// Validator performs semantic validation on a parsed scenario.
type Validator struct {
	eval   *script.Evaluator
	logger *slog.Logger
}

// NewValidator creates a Validator. The evaluator is used to
// syntax-check script items at push time.
func NewValidator(eval *script.Evaluator, logger *slog.Logger) *Validator {
	return &Validator{
		eval:   eval,
		logger: logger.With("component", "validator"),
	}
}

// Validate checks semantic correctness of a scenario. Returns nil if
// valid, or a *model.APIError with FieldError details.
func (v *Validator) Validate(scn *model.Scenario) *model.APIError {
	var errs []model.FieldError

	errs = append(errs, v.validateHeader(scn)...)
	errs = append(errs, v.validateItems(scn)...)

	if len(errs) == 0 {
		return nil
	}
	return model.NewValidationError("scenario validation failed", errs...)
}

func (v *Validator) validateHeader(scn *model.Scenario) []model.FieldError {
	var errs []model.FieldError
	if scn.Name == "" {
		errs = append(errs, model.FieldError{Field: "name", Message: "name is required"})
	}
	if scn.Persist != nil && !scn.Persist.Forever && scn.Persist.Grace < 0 {
		errs = append(errs, model.FieldError{Field: "persist", Message: "grace must not be negative"})
	}
	return errs
}

func (v *Validator) validateItems(scn *model.Scenario) []model.FieldError {
	var errs []model.FieldError
	if len(scn.Items) == 0 {
		return []model.FieldError{{Field: "items", Message: "at least one item is required"}}
	}

	seen := make(map[string]bool, len(scn.Items))
	for i, item := range scn.Items {
		path := fmt.Sprintf("items[%d]", i)

		if item.Name == "" {
			errs = append(errs, model.FieldError{Path: path + ".name", Message: "name is required"})
		} else if seen[item.Name] {
			errs = append(errs, model.FieldError{
				Path:    path + ".name",
				Message: fmt.Sprintf("duplicate item name %q", item.Name),
			})
		}
		seen[item.Name] = true

		if !item.Kind.Valid() {
			errs = append(errs, model.FieldError{
				Path:    path + ".kind",
				Message: fmt.Sprintf("unknown kind %q", item.Kind),
			})
		}
		if item.Duration <= 0 {
			errs = append(errs, model.FieldError{Path: path + ".duration", Message: "duration must be positive"})
		}
		if !timeline.ValidPlacement(timeline.Placement(item.Place)) {
			errs = append(errs, model.FieldError{
				Path:    path + ".place",
				Message: fmt.Sprintf("unknown placement %q", item.Place),
			})
		}
		if _, ok := runner.EaseByName(item.Ease); !ok {
			errs = append(errs, model.FieldError{
				Path:    path + ".ease",
				Message: fmt.Sprintf("unknown easing %q", item.Ease),
			})
		}
		if item.Persist != nil && !item.Persist.Forever && item.Persist.Grace < 0 {
			errs = append(errs, model.FieldError{Path: path + ".persist", Message: "grace must not be negative"})
		}

		errs = append(errs, v.validateScript(path, item)...)
	}
	return errs
}

func (v *Validator) validateScript(path string, item model.Item) []model.FieldError {
	if item.Kind != model.ItemKindScript {
		if item.Script != "" {
			return []model.FieldError{{
				Path:    path + ".script",
				Message: "script is only valid for script items",
			}}
		}
		return nil
	}

	if item.Script == "" {
		return []model.FieldError{{Path: path + ".script", Message: "script is required for script items"}}
	}
	if _, err := v.eval.Compile(item.Script); err != nil {
		return []model.FieldError{{
			Path:    path + ".script",
			Message: fmt.Sprintf("script does not compile: %v", err),
		}}
	}
	return nil
}
