package engine

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	validatorV10 "github.com/go-playground/validator/v10"

	"github.com/leeforge/glideformat/errors"
)

var validator *validatorV10.Validate

var (
	fitPattern  = regexp.MustCompile(`^(contain|max|fill|fill-max|stretch|crop|crop-(top-left|top|top-right|left|center|right|bottom-left|bottom|bottom-right)|crop-\d{1,3}-\d{1,3}(-\d+(\.\d+)?)?)$`)
	cropPattern = regexp.MustCompile(`^\d+,\d+,\d+,\d+$`)
)

func init() {
	validator = validatorV10.New()
	// Report fields by their parameter name (w, fit, ...) rather than the Go field name.
	validator.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = validator.RegisterValidation("glide_fit", func(fl validatorV10.FieldLevel) bool {
		return fitPattern.MatchString(fl.Field().String())
	})
	_ = validator.RegisterValidation("glide_crop", func(fl validatorV10.FieldLevel) bool {
		return cropPattern.MatchString(fl.Field().String())
	})
	_ = validator.RegisterValidation("glide_color", func(fl validatorV10.FieldLevel) bool {
		_, err := ParseColor(fl.Field().String())
		return err == nil
	})
}

func getValidationMessage(fe validatorV10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "glide_fit":
		return "must be contain, max, fill, fill-max, stretch, crop or crop-{position}"
	case "glide_crop":
		return "must be width,height,x,y"
	case "glide_color":
		return "must be a hex colour (rgb, argb, rrggbb or aarrggbb)"
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}

// validationError converts the first validator failure into an invalid-parameter error.
func validationError(err error) error {
	var ves validatorV10.ValidationErrors
	if !stderrors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	fe := ves[0]
	return invalidParam(fe.Field(), fe.Value(), getValidationMessage(fe))
}

func configError(err error) error {
	var ves validatorV10.ValidationErrors
	if !stderrors.As(err, &ves) || len(ves) == 0 {
		return errors.WrapWithType(err, errors.ErrorTypeInvalid, "invalid engine config")
	}
	fe := ves[0]
	msg := getValidationMessage(fe)
	return errors.NewInvalid(fe.Field(), fe.Value(), msg).
		WithMessage(fmt.Sprintf("invalid engine config: %s %s", fe.Field(), msg))
}
