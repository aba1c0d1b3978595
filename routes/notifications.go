package routes

import (
	"github.com/kataras/iris/v12"
)

// Alerts lists the reservations the desk should look at today.
func (h *Handler) Alerts(ctx iris.Context) {
	alerts, err := h.Hotel.Alerts(ctx.Request().Context())
	if err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.JSON(iris.Map{
		"date":   h.Hotel.Today().Format("2006-01-02"),
		"count":  len(alerts),
		"alerts": alerts,
	})
}
