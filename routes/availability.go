package routes

import (
	"net/http"

	"frontdesk-server/models"
	"frontdesk-server/utils"

	"github.com/kataras/iris/v12"
)

// GET /api/availability?checkIn=&checkOut=&type=&floor=
func (h *Handler) FreeRooms(ctx iris.Context) {
	rng, ok := rangeParams(ctx, "checkIn", "checkOut")
	if !ok {
		return
	}
	filter, err := roomFilter(ctx)
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	rooms, err := h.Hotel.Availability.FreeRoomsForRange(ctx.Request().Context(), rng, filter)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	ctx.JSON(iris.Map{"checkIn": rng.CheckIn.Format(models.DateLayout), "checkOut": rng.CheckOut.Format(models.DateLayout), "rooms": rooms})
}

func (h *Handler) PropertyCalendar(ctx iris.Context) {
	year, month, ok := h.monthParams(ctx)
	if !ok {
		return
	}
	rooms, err := h.Hotel.Availability.PropertyCalendar(ctx.Request().Context(), year, month)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	if rooms == nil {
		rooms = []models.RoomCalendar{}
	}
	ctx.JSON(iris.Map{"year": year, "month": int(month), "rooms": rooms})
}

// GET /api/overview?date=
func (h *Handler) DailyOverview(ctx iris.Context) {
	day := h.Hotel.Today()
	if s := ctx.URLParam("date"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			utils.JSONError(ctx, http.StatusBadRequest, "validation_error", "date must be YYYY-MM-DD")
			return
		}
		day = d
	}
	overview, err := h.Hotel.Availability.DailyOverview(ctx.Request().Context(), day)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(overview)
}

func (h *Handler) AuditTrail(ctx iris.Context) {
	entries, err := h.Hotel.AuditTrail(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	ctx.JSON(entries)
}

// rangeParams reads a pair of YYYY-MM-DD query parameters into a range.
func rangeParams(ctx iris.Context, from, to string) (models.DateRange, bool) {
	in, err := models.ParseDate(ctx.URLParam(from))
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "validation_error", from+" must be YYYY-MM-DD")
		return models.DateRange{}, false
	}
	out, err := models.ParseDate(ctx.URLParam(to))
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "validation_error", to+" must be YYYY-MM-DD")
		return models.DateRange{}, false
	}
	rng, err := models.NewDateRange(in, out)
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "validation_error", err.Error())
		return models.DateRange{}, false
	}
	return rng, true
}
