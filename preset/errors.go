package preset

import (
	stderrors "errors"
	"fmt"

	"github.com/leeforge/glideformat/errors"
)

const (
	CodePresetNotFound = "PRESET_NOT_FOUND"
	CodePresetExists   = "PRESET_EXISTS"
	CodePresetInvalid  = "PRESET_INVALID"
)

// Sentinels for errors.Is. Every error returned by the registry matches one of them.
var (
	ErrPresetNotFound = errors.New(errors.ErrorTypeNotFound, "preset not found").WithCode(CodePresetNotFound)
	ErrPresetExists   = errors.New(errors.ErrorTypeConflict, "preset already exists").WithCode(CodePresetExists)
	ErrInvalidName    = errors.New(errors.ErrorTypeInvalid, "preset name is empty").WithCode(CodePresetInvalid)
)

func notFound(name string) *errors.AppError {
	return errors.NewNotFound("preset", name).
		WithCode(CodePresetNotFound).
		WithMessage(fmt.Sprintf("preset %s does not exist", name)).
		WithDetail("preset", name)
}

func exists(name string) *errors.AppError {
	return errors.NewConflict("preset", name).
		WithCode(CodePresetExists).
		WithMessage(fmt.Sprintf("preset %s already exists", name)).
		WithDetail("preset", name)
}

func invalidName() *errors.AppError {
	return errors.NewInvalid("preset", "", "name must not be empty").
		WithCode(CodePresetInvalid).
		WithMessage("preset name must not be empty")
}

// PresetName returns the preset name carried by a registry error.
func PresetName(err error) (string, bool) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return "", false
	}
	name, ok := appErr.Detail("preset").(string)
	return name, ok
}

// IsNotFound reports whether err is a missing-preset error.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrPresetNotFound)
}

// IsExists reports whether err is a duplicate-preset error.
func IsExists(err error) bool {
	return stderrors.Is(err, ErrPresetExists)
}
