package routes

import (
	"net/http"
	"strconv"
	"time"

	"frontdesk-server/models"
	"frontdesk-server/services"
	"frontdesk-server/utils"

	"github.com/kataras/iris/v12"
)

type RoomStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// roomFilter reads ?type=&floor=&status= from the query string.
func roomFilter(ctx iris.Context) (models.RoomFilter, error) {
	var f models.RoomFilter
	if s := ctx.URLParam("type"); s != "" {
		t, err := models.ParseRoomType(s)
		if err != nil {
			return f, err
		}
		f.Type = t
	}
	if s := ctx.URLParam("floor"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return f, err
		}
		f.Floor = &n
	}
	if s := ctx.URLParam("status"); s != "" {
		st, err := models.ParseRoomStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	return f, nil
}

// monthParams reads ?year=&month=, defaulting to the current month.
func (h *Handler) monthParams(ctx iris.Context) (int, time.Month, bool) {
	today := h.Hotel.Today()
	year := ctx.URLParamIntDefault("year", today.Year())
	month := ctx.URLParamIntDefault("month", int(today.Month()))
	if month < 1 || month > 12 {
		utils.JSONError(ctx, http.StatusBadRequest, "validation_error", "month must be between 1 and 12")
		return 0, 0, false
	}
	return year, time.Month(month), true
}

func (h *Handler) CreateRoom(ctx iris.Context) {
	var input services.RoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	room, err := h.Hotel.Rooms.CreateRoom(utils.ActorContext(ctx), input)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(room)
}

func (h *Handler) ListRooms(ctx iris.Context) {
	filter, err := roomFilter(ctx)
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	rooms, err := h.Hotel.Rooms.ListRooms(ctx.Request().Context(), filter)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	ctx.JSON(rooms)
}

func (h *Handler) GetRoom(ctx iris.Context) {
	room, err := h.Hotel.Rooms.GetRoom(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(room)
}

func (h *Handler) UpdateRoom(ctx iris.Context) {
	var patch services.RoomPatch
	if err := ctx.ReadJSON(&patch); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	room, err := h.Hotel.Rooms.UpdateRoom(utils.ActorContext(ctx), ctx.Params().Get("id"), patch)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(room)
}

func (h *Handler) SetRoomStatus(ctx iris.Context) {
	var input RoomStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	room, err := h.Hotel.Rooms.SetPhysicalStatus(utils.ActorContext(ctx), ctx.Params().Get("id"), models.RoomStatus(input.Status))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(room)
}

func (h *Handler) DeleteRoom(ctx iris.Context) {
	if err := h.Hotel.Rooms.DeleteRoom(utils.ActorContext(ctx), ctx.Params().Get("id")); err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.StatusCode(http.StatusNoContent)
}

func (h *Handler) RoomCalendar(ctx iris.Context) {
	year, month, ok := h.monthParams(ctx)
	if !ok {
		return
	}
	days, err := h.Hotel.Availability.MonthCalendar(ctx.Request().Context(), ctx.Params().Get("id"), year, month)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"roomId": ctx.Params().Get("id"), "year": year, "month": int(month), "days": days})
}
