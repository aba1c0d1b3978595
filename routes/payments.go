package routes

import (
	"errors"
	"net/http"

	"frontdesk-server/models"
	"frontdesk-server/services"
	"frontdesk-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	Method           string          `json:"method" validate:"required"`
	Reference        string          `json:"reference" validate:"max=120"`
	Notes            string          `json:"notes"`
	AllowOverpayment bool            `json:"allowOverpayment"`
}

type SettleRequest struct {
	Success bool `json:"success"`
}

type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"max=500"`
}

func (h *Handler) RecordPayment(ctx iris.Context) {
	var input PaymentRequest
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	payment, err := h.Hotel.Ledger.RecordPayment(utils.ActorContext(ctx), services.PaymentInput{
		ReservationID:    ctx.Params().Get("id"),
		Amount:           input.Amount,
		Method:           models.PaymentMethod(input.Method),
		Reference:        input.Reference,
		Notes:            input.Notes,
		AllowOverpayment: input.AllowOverpayment,
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(payment)
}

func (h *Handler) ListPayments(ctx iris.Context) {
	payments, err := h.Hotel.Ledger.ListPayments(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(payments)
}

// Balance reports an overpaid reservation with its negative balance rather
// than as an error, flagged so the desk can sort it out.
func (h *Handler) Balance(ctx iris.Context) {
	id := ctx.Params().Get("id")
	balance, err := h.Hotel.Ledger.BalanceDue(ctx.Request().Context(), id)
	overpaid := errors.Is(err, services.ErrConsistency)
	if err != nil && !overpaid {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"reservationId": id, "balanceDue": balance, "overpaid": overpaid})
}

func (h *Handler) SettlePayment(ctx iris.Context) {
	var input SettleRequest
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	payment, err := h.Hotel.Ledger.SettlePayment(utils.ActorContext(ctx), ctx.Params().Get("id"), input.Success)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.JSON(payment)
}

func (h *Handler) Refund(ctx iris.Context) {
	var input RefundRequest
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	refund, err := h.Hotel.Ledger.Refund(utils.ActorContext(ctx), ctx.Params().Get("id"), input.Amount, input.Reason)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(refund)
}
