package api

import (
	"errors"
	"mime"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/llamabricks/internal/pipedoc"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{Message: msg, Type: errType},
	})
}

// writeFailure maps err onto a status code.
func writeFailure(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return writeBadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		return writeNotFound(c, err.Error())
	case errors.Is(err, ErrUnsupportedMediaType):
		return writeError(c, http.StatusUnsupportedMediaType, "invalid_request_error", err.Error())
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// writeBuildError reports a pipeline document that could not be built.
func writeBuildError(c *echo.Context, err error) error {
	if errors.Is(err, pipedoc.ErrNotAllowed) {
		return writeError(c, http.StatusForbidden, "permission_error", err.Error())
	}
	return writeBadRequest(c, err.Error())
}

// decodeJSON requires an application/json body. Browsers cannot send that
// cross-origin without a preflight, which this server never approves.
func decodeJSON[T any](c *echo.Context) (T, error) {
	var out T
	mt, _, err := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	if err != nil || mt != echo.MIMEApplicationJSON {
		return out, ErrUnsupportedMediaType
	}
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return out, newInvalidRequest("invalid JSON body: " + err.Error())
	}
	return out, nil
}
