package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// intParam parses a numeric path parameter, 404ing on garbage.
func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}

type SuccessResponse struct {
	Success string `json:"success"`
}
