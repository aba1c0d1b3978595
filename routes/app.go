package routes

import (
	"frontdesk-server/services"
	"frontdesk-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/sirupsen/logrus"
)

// Handler serves the front-desk API on top of one Hotel.
type Handler struct {
	Hotel  *services.Hotel
	Logger *logrus.Logger
}

func (h *Handler) fail(ctx iris.Context, err error) {
	if !utils.HandleServiceError(ctx, err) {
		h.Logger.WithFields(logrus.Fields{"path": ctx.Path()}).Errorf("request failed: %v", err)
	}
}

func NewApplication(h *Handler, secret string, policy *utils.Policy) *iris.Application {
	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(secret))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})
	can := func(obj, act string) iris.Handler { return utils.Can(policy, obj, act) }

	api := app.Party("/api", accessTokenVerifierMiddleware)

	rooms := api.Party("/rooms")
	{
		rooms.Post("/", can("rooms", "create"), h.CreateRoom)
		rooms.Get("/", can("rooms", "read"), h.ListRooms)
		rooms.Get("/{id}", can("rooms", "read"), h.GetRoom)
		rooms.Patch("/{id}", can("rooms", "update"), h.UpdateRoom)
		rooms.Patch("/{id}/status", can("rooms", "status"), h.SetRoomStatus)
		rooms.Delete("/{id}", can("rooms", "delete"), h.DeleteRoom)
		rooms.Get("/{id}/calendar", can("rooms", "read"), h.RoomCalendar)
	}

	api.Get("/availability", can("rooms", "read"), h.FreeRooms)
	api.Get("/calendar", can("rooms", "read"), h.PropertyCalendar)
	api.Get("/overview", can("reservations", "read"), h.DailyOverview)
	api.Get("/alerts", can("reservations", "read"), h.Alerts)
	api.Get("/audit/{id}", can("audit", "read"), h.AuditTrail)

	reservations := api.Party("/reservations")
	{
		reservations.Post("/", can("reservations", "create"), h.CreateReservation)
		reservations.Get("/", can("reservations", "read"), h.ListReservations)
		reservations.Get("/{id}", can("reservations", "read"), h.GetReservation)
		reservations.Patch("/{id}", can("reservations", "update"), h.UpdateReservation)
		for _, ev := range []services.Event{
			services.EventConfirm,
			services.EventCancel,
			services.EventCheckIn,
			services.EventCheckOut,
			services.EventNoShow,
		} {
			reservations.Post("/{id}/"+string(ev), can("reservations", string(ev)), h.Transition(ev))
		}
		reservations.Post("/{id}/force-status", can("reservations", "force-status"), h.ForceStatus)

		reservations.Post("/{id}/payments", can("payments", "record"), h.RecordPayment)
		reservations.Get("/{id}/payments", can("payments", "read"), h.ListPayments)
		reservations.Get("/{id}/balance", can("payments", "read"), h.Balance)
	}

	payments := api.Party("/payments")
	{
		payments.Post("/{id}/settle", can("payments", "settle"), h.SettlePayment)
		payments.Post("/{id}/refund", can("payments", "refund"), h.Refund)
	}

	return app
}
