package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nkashama/duetrack/core"
	"github.com/nkashama/duetrack/core/alert"
)

type alertApi struct {
	registry   *alert.Registry
	dispatcher *alert.Dispatcher
	logger     core.Logger
}

func registerAlertAPI(g *echo.Group, deps ServerDeps) {
	api := alertApi{
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}

	// the socket identifies its user via the register event, not a JWT
	g.GET("/ws", api.serveWS)
	g.POST("/test-alert", api.testAlert)
}

// testAlert pushes a hand-crafted deadline alert through the live dispatch
// path; a quick way to check websocket delivery end to end.
func (api *alertApi) testAlert(ctx echo.Context) error {
	var data TestAlertRequest
	if err := ctx.Bind(&data); err != nil {
		return ctx.JSON(http.StatusBadRequest, SuccessResponse{
			Success: false,
			Message: "Missing userId or taskId",
		})
	}
	if data.UserID == "" || data.TaskID == "" {
		return ctx.JSON(http.StatusBadRequest, SuccessResponse{
			Success: false,
			Message: "Missing userId or taskId",
		})
	}

	n := alert.Notification{
		ID:       uuid.New().String(),
		TaskID:   data.TaskID,
		Title:    data.Title,
		DueTime:  data.DueTime,
		CourseID: data.CourseID,
		Message:  data.Message,
	}
	if n.Message == "" {
		n.Message = fmt.Sprintf("Your task %q is due soon!", data.Title)
	}
	if data.DueAt != "" {
		if dueAt, err := time.Parse(time.RFC3339, data.DueAt); err == nil {
			n.DueAt = dueAt
		}
	}

	api.dispatcher.Dispatch(data.UserID, n)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Notification sent"})
}
