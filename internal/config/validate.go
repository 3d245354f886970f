package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vk/skygrid/internal/imgerr"
	"github.com/vk/skygrid/internal/polarisation"
)

var runValidate *validator.Validate

func init() {
	runValidate = validator.New(validator.WithRequiredStructEnabled())
	_ = runValidate.RegisterValidation("polframe", validatePolFrame)
	runValidate.RegisterStructValidation(validateReport, Report{})
}

func validatePolFrame(fl validator.FieldLevel) bool {
	_, err := polarisation.Parse(fl.Field().String())
	return err == nil
}

func validateReport(sl validator.StructLevel) {
	r := sl.Current().Interface().(Report)
	if r.Kind != ReportSocketIO {
		return
	}
	if r.URL == "" {
		sl.ReportError(r.URL, "URL", "URL", "required_for_socketio", "")
	}
	if r.Event == "" {
		sl.ReportError(r.Event, "Event", "Event", "required_for_socketio", "")
	}
}

// Validate checks the run and its cross-block constraints. Failures are
// configuration errors.
func (r *Run) Validate() error {
	if err := runValidate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag())
			}
			return &imgerr.Error{Kind: imgerr.ErrConfiguration, Op: "config", Msg: strings.Join(msgs, "; ")}
		}
		return &imgerr.Error{Kind: imgerr.ErrConfiguration, Op: "config", Err: err}
	}

	nchan := len(r.Observation.Frequencies)
	seen := make(map[string]struct{}, len(r.Components))
	for _, c := range r.Components {
		if len(c.Flux) != nchan {
			return imgerr.Configurationf("config", "component %q has %d flux values for %d frequencies", c.Name, len(c.Flux), nchan)
		}
		if _, dup := seen[c.Name]; dup {
			return imgerr.Configurationf("config", "duplicate component %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	if r.Imaging.Axis == "none" && r.Imaging.Slices > 1 {
		return imgerr.Configurationf("config", "%d slices requested without a slicing axis", r.Imaging.Slices)
	}
	return nil
}
