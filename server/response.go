package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/previewkit/errors"
)

// DataResponse wraps successful answers.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError writes err as an ErrorResponse. Errors that are not
// AppErrors are reported as internal without exposing their text.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		_ = c.Error(err)
		appErr = errors.Internal(err)
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, appErr.ToResponse())
}

// RespondOK writes data with status 200.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}
