// Package api serves the community web backend over gin.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Result is the envelope of every API response.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success builds a successful result.
func Success(message string, data any) Result {
	return Result{Success: true, Message: message, Data: data}
}

// Failure builds a failed result. data optionally names the offending field.
func Failure(message string, data any) Result {
	return Result{Success: false, Message: message, Data: data}
}

func respond(c *gin.Context, status int, r Result) {
	c.JSON(status, r)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Failure(message, nil))
}

// internalError logs err on the gin context and replies with a generic 500.
func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	respond(c, http.StatusInternalServerError, Failure("Something went wrong. Please try again later.", nil))
}

var errEmptyBody = errors.New("empty request body")

// bindRequest decodes the payload the frontend sends under "requestData".
// A body without that wrapper is decoded as the payload itself.
func bindRequest(c *gin.Context, dst any) error {
	raw, err := c.GetRawData()
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return errEmptyBody
	}

	var wrapper struct {
		RequestData json.RawMessage `json:"requestData"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return err
	}
	if len(wrapper.RequestData) > 0 && string(wrapper.RequestData) != "null" {
		raw = wrapper.RequestData
	}
	return binding.JSON.BindBody(raw, dst)
}
