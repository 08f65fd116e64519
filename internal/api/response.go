package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/flowgrid/internal/dispatch"
	"github.com/specialistvlad/flowgrid/internal/engine"
	"github.com/specialistvlad/flowgrid/internal/graph"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
	"github.com/specialistvlad/flowgrid/internal/plan"
	"github.com/specialistvlad/flowgrid/internal/validator"
	"github.com/specialistvlad/flowgrid/internal/workflow"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func sendSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func sendError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: msg})
}

// fail replies with the status that matches err.
func fail(c *gin.Context, err error) {
	sendError(c, statusFor(err), err.Error())
}

func statusFor(err error) int {
	var vErr *validator.Error
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrNoSelection), errors.Is(err, workflow.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, graph.ErrStructural),
		errors.Is(err, workflow.ErrInvalidDocument),
		errors.Is(err, workflow.ErrEmptyName),
		errors.Is(err, nodeconfig.ErrUnknownType),
		errors.Is(err, nodeconfig.ErrMissingID),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.As(err, &vErr), errors.Is(err, plan.ErrUnresolved):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrNoBackend), errors.Is(err, dispatch.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, dispatch.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
