// routes/reservation.go
package routes

import (
	"net/http"
	"time"

	"frontdesk-server/models"
	"frontdesk-server/services"
	"frontdesk-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"
)

type CreateReservationInput struct {
	GuestID     string           `json:"guestId" validate:"required"`
	GuestName   string           `json:"guestName" validate:"max=120"`
	RoomID      string           `json:"roomId" validate:"required"`
	CheckIn     string           `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut    string           `json:"checkOut" validate:"required,datetime=2006-01-02"`
	Guests      int              `json:"guests" validate:"omitempty,min=1"`
	TotalAmount *decimal.Decimal `json:"totalAmount"`
	Notes       string           `json:"notes"`
	Confirm     bool             `json:"confirm"`
}

type UpdateReservationInput struct {
	RoomID      *string          `json:"roomId"`
	CheckIn     *string          `json:"checkIn" validate:"omitempty,datetime=2006-01-02"`
	CheckOut    *string          `json:"checkOut" validate:"omitempty,datetime=2006-01-02"`
	Guests      *int             `json:"guests" validate:"omitempty,min=1"`
	GuestName   *string          `json:"guestName" validate:"omitempty,max=120"`
	TotalAmount *decimal.Decimal `json:"totalAmount"`
	Notes       *string          `json:"notes"`
}

type ForceStatusInput struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// reservationView adds the events the desk may fire next.
type reservationView struct {
	*models.Reservation
	AllowedEvents []services.Event `json:"allowedEvents"`
}

func viewOf(r *models.Reservation) reservationView {
	events := services.AllowedEvents(r.Status)
	if events == nil {
		events = []services.Event{}
	}
	return reservationView{Reservation: r, AllowedEvents: events}
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	d, err := models.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func toReservationInput(input CreateReservationInput) (services.ReservationInput, error) {
	in, err := models.ParseDate(input.CheckIn)
	if err != nil {
		return services.ReservationInput{}, err
	}
	out, err := models.ParseDate(input.CheckOut)
	if err != nil {
		return services.ReservationInput{}, err
	}
	return services.ReservationInput{
		GuestID:     input.GuestID,
		GuestName:   input.GuestName,
		RoomID:      input.RoomID,
		CheckIn:     in,
		CheckOut:    out,
		Guests:      input.Guests,
		TotalAmount: input.TotalAmount,
		Notes:       input.Notes,
		Confirm:     input.Confirm,
	}, nil
}

func (h *Handler) CreateReservation(ctx iris.Context) {
	var input CreateReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	in, err := toReservationInput(input)
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	reservation, err := h.Hotel.Reservations.Create(utils.ActorContext(ctx), in)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(viewOf(reservation))
}

func (h *Handler) GetReservation(ctx iris.Context) {
	reservation, err := h.Hotel.Reservations.Get(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(viewOf(reservation))
}

// GET /api/reservations?roomId=&guestId=&status=&from=&to=
func (h *Handler) ListReservations(ctx iris.Context) {
	q := models.ReservationQuery{
		RoomID:  ctx.URLParam("roomId"),
		GuestID: ctx.URLParam("guestId"),
	}
	if s := ctx.URLParam("status"); s != "" {
		status, err := models.ParseReservationStatus(s)
		if err != nil {
			utils.JSONError(ctx, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		q.Status = status
	}
	if ctx.URLParamExists("from") || ctx.URLParamExists("to") {
		rng, ok := rangeParams(ctx, "from", "to")
		if !ok {
			return
		}
		q.Range = &rng
	}
	reservations, err := services.Collect(h.Hotel.Reservations.Search(ctx.Request().Context(), q))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(reservations)
}

func (h *Handler) UpdateReservation(ctx iris.Context) {
	var input UpdateReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	checkIn, err := parseOptionalDate(input.CheckIn)
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "validation_error", "checkIn must be YYYY-MM-DD")
		return
	}
	checkOut, err := parseOptionalDate(input.CheckOut)
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "validation_error", "checkOut must be YYYY-MM-DD")
		return
	}
	reservation, err := h.Hotel.Reservations.Update(utils.ActorContext(ctx), ctx.Params().Get("id"), services.ReservationPatch{
		RoomID:      input.RoomID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Guests:      input.Guests,
		GuestName:   input.GuestName,
		TotalAmount: input.TotalAmount,
		Notes:       input.Notes,
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(viewOf(reservation))
}

// Transition fires one lifecycle event. Check-out answers with the balance
// still owed alongside the reservation.
func (h *Handler) Transition(ev services.Event) iris.Handler {
	return func(ctx iris.Context) {
		id := ctx.Params().Get("id")
		if ev == services.EventCheckOut {
			res, err := h.Hotel.Lifecycle.CheckOut(utils.ActorContext(ctx), id)
			if err != nil {
				h.fail(ctx, err)
				return
			}
			ctx.JSON(iris.Map{
				"reservation":        viewOf(res.Reservation),
				"outstandingBalance": res.OutstandingBalance,
				"warning":            res.Warning,
			})
			return
		}
		reservation, err := h.Hotel.Lifecycle.Fire(utils.ActorContext(ctx), id, ev)
		if err != nil {
			h.fail(ctx, err)
			return
		}
		ctx.JSON(viewOf(reservation))
	}
}

func (h *Handler) ForceStatus(ctx iris.Context) {
	var input ForceStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	reservation, err := h.Hotel.Lifecycle.ForceStatus(utils.ActorContext(ctx), ctx.Params().Get("id"),
		models.ReservationStatus(input.Status), input.Reason)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(viewOf(reservation))
}
