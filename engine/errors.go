package engine

import (
	"fmt"
	"net/http"

	"github.com/leeforge/glideformat/errors"
	"github.com/leeforge/glideformat/storage"
)

const (
	CodeInvalidParams = "INVALID_PARAMS"
	CodeUndecodable   = "IMAGE_UNDECODABLE"
)

// Sentinels for errors.Is.
var (
	ErrInvalidParams = errors.New(errors.ErrorTypeInvalid, "invalid image parameters").WithCode(CodeInvalidParams)
	ErrUndecodable   = errors.New(errors.ErrorTypeInvalid, "source image cannot be decoded").WithCode(CodeUndecodable)
)

func invalidParam(field string, value any, reason string) *errors.AppError {
	return errors.NewInvalid(field, value, reason).
		WithCode(CodeInvalidParams).
		WithMessage(fmt.Sprintf("invalid image parameter %s=%v: %s", field, value, reason))
}

func undecodable(path string, err error) *errors.AppError {
	return errors.WrapWithType(err, errors.ErrorTypeInvalid, fmt.Sprintf("cannot decode image `%s`: %v", path, err)).
		WithCode(CodeUndecodable).
		WithDetail("path", path).
		WithHTTPStatus(http.StatusUnprocessableEntity)
}

func imageNotFound(path string, cause error) *errors.AppError {
	e := errors.NewNotFound("image", path).
		WithCode(storage.CodeFileNotFound).
		WithMessage(fmt.Sprintf("could not find the image `%s`", path)).
		WithDetail("path", path)
	if cause != nil {
		e = e.WithInnerError(cause)
	}
	return e
}
