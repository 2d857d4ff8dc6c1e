package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput        = "LOADRELAY_BAD_INPUT"
	ErrorUnauthorized    = "LOADRELAY_UNAUTHORIZED"
	ErrorNotFound        = "LOADRELAY_NOT_FOUND"
	ErrorExternalFailure = "LOADRELAY_EXTERNAL_FAILURE"
	ErrorNotConfigured   = "LOADRELAY_NOT_CONFIGURED"
	ErrorInternal        = "LOADRELAY_INTERNAL_ERROR"
)

// MapError converts any error into the relay error envelope. Errors that are
// already rich keep their category; sentinel errors of this package are
// classified; anything else falls back to the go-errors default mappers.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrJobNotFound):
		return newRelayError(err.Error(), goerrors.CategoryNotFound, ErrorNotFound)
	case errors.Is(err, ErrJobIDRequired),
		errors.Is(err, ErrSessionIDRequired),
		errors.Is(err, ErrUserMessageMissing):
		return newRelayError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newRelayError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func HTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newRelayError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = HTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorUnauthorized
	case goerrors.CategoryExternal:
		return ErrorExternalFailure
	default:
		return ErrorInternal
	}
}

func badInputError(message string, metadata map[string]any) error {
	return relayError(message, goerrors.CategoryBadInput, ErrorBadInput, metadata)
}

func notFoundError(message string, metadata map[string]any) error {
	return relayError(message, goerrors.CategoryNotFound, ErrorNotFound, metadata)
}

func notConfiguredError(message string, metadata map[string]any) error {
	return relayError(message, goerrors.CategoryInternal, ErrorNotConfigured, metadata)
}

func internalError(source error, message string, metadata map[string]any) error {
	return relayWrapError(source, goerrors.CategoryInternal, message, ErrorInternal, metadata)
}

func externalError(source error, message string, metadata map[string]any) error {
	return relayWrapError(source, goerrors.CategoryExternal, message, ErrorExternalFailure, metadata)
}

func relayError(message string, category goerrors.Category, textCode string, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(HTTPStatus(category)).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func relayWrapError(
	source error,
	category goerrors.Category,
	message string,
	textCode string,
	metadata map[string]any,
) error {
	if source == nil {
		return relayError(message, category, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(HTTPStatus(category)).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func isJobNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}
