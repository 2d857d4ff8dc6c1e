package inbound

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-loadrelay/core"
)

func inboundError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func inboundWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	if source == nil {
		return inboundError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func inboundBadInput(message string, metadata map[string]any) error {
	return inboundError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.ErrorBadInput,
		metadata,
	)
}

func inboundUnauthorized(message string) error {
	return inboundError(
		message,
		goerrors.CategoryAuth,
		http.StatusUnauthorized,
		core.ErrorUnauthorized,
		nil,
	)
}

func inboundMalformedBody(source error) error {
	return inboundWrapError(
		source,
		goerrors.CategoryBadInput,
		"inbound: request body must be a JSON object",
		http.StatusBadRequest,
		core.ErrorBadInput,
		nil,
	)
}

// errorEnvelope is the wire shape of every failed response.
type errorEnvelope struct {
	OK       bool           `json:"ok"`
	Error    string         `json:"error"`
	TextCode string         `json:"text_code"`
	Details  map[string]any `json:"details,omitempty"`
}

// statusFor resolves the response status of err. Rich errors keep their
// code; everything else is classified by core.MapError.
func statusFor(err error) (int, *goerrors.Error) {
	mapped := core.MapError(err)
	if mapped == nil {
		return http.StatusInternalServerError, nil
	}
	code := mapped.Code
	if code < 400 || code > 599 {
		code = core.HTTPStatus(mapped.Category)
	}
	return code, mapped
}
