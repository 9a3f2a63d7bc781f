package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jobboard/internal/api/middleware"
	"jobboard/internal/errcode"
)

const internalErrorMessage = "Something went wrong. Please try again later."

var defaultMessages = map[errcode.Kind]string{
	errcode.Validation:   "Invalid request.",
	errcode.NotFound:     "Not found.",
	errcode.Unauthorized: "Please login to continue.",
	errcode.Forbidden:    "You do not have permission to do that.",
	errcode.Conflict:     "Already exists.",
}

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// Fail maps a service error onto the response. Unclassified errors are logged
// and reported generically.
func Fail(c *gin.Context, err error) {
	var e *errcode.Error
	if !errors.As(err, &e) {
		middleware.LoggerFromContext(c).Error("request failed", slog.Any("error", err))
		Internal(c, internalErrorMessage)
		return
	}

	status := http.StatusInternalServerError
	switch e.Kind {
	case errcode.Validation:
		status = http.StatusBadRequest
	case errcode.NotFound:
		status = http.StatusNotFound
	case errcode.Unauthorized:
		status = http.StatusUnauthorized
	case errcode.Forbidden:
		status = http.StatusForbidden
	case errcode.Conflict:
		status = http.StatusConflict
	}
	msg := e.Msg
	if msg == "" {
		msg = defaultMessages[e.Kind]
	}
	body := gin.H{"error": msg}
	if len(e.Fields) > 0 {
		body["form"] = e.Fields
	}
	c.JSON(status, body)
}

// idParam parses a positive numeric path parameter, answering 404 otherwise.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		NotFound(c, "Not found.")
		return 0, false
	}
	return uint(id), true
}
