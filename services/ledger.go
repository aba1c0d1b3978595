package services

import (
	"context"
	"fmt"

	"frontdesk-server/models"
	"frontdesk-server/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Ledger records payments and refunds against reservations. Entries are
// append-only: a refund is a new entry pointing at the payment it returns.
// Reservation.PaidAmount mirrors completed payments minus refunds and is
// kept in the same unit of work as the entry that changes it.
type Ledger struct {
	*deps
}

type PaymentInput struct {
	ReservationID string               `json:"reservationId" validate:"required"`
	Amount        decimal.Decimal      `json:"amount"`
	Method        models.PaymentMethod `json:"method" validate:"required"`
	Reference     string               `json:"reference"`
	Notes         string               `json:"notes"`
	// AllowOverpayment lets the ledger take more than the reservation total.
	AllowOverpayment bool `json:"allowOverpayment"`
}

// ledgerTotals sums a reservation's entries.
type ledgerTotals struct {
	completed decimal.Decimal
	pending   decimal.Decimal
	refunded  decimal.Decimal
	// refundedOf maps a payment id to the amount already returned on it.
	refundedOf map[string]decimal.Decimal
}

func (t ledgerTotals) paid() decimal.Decimal { return t.completed.Sub(t.refunded) }

func totals(payments []models.Payment) ledgerTotals {
	t := ledgerTotals{
		completed:  decimal.Zero,
		pending:    decimal.Zero,
		refunded:   decimal.Zero,
		refundedOf: map[string]decimal.Decimal{},
	}
	for _, p := range payments {
		switch {
		case p.IsRefund():
			t.refunded = t.refunded.Add(p.Amount)
			t.refundedOf[p.RefundOf] = t.refundedOf[p.RefundOf].Add(p.Amount)
		case p.Status == models.PaymentCompleted:
			t.completed = t.completed.Add(p.Amount)
		case p.Status == models.PaymentPending:
			t.pending = t.pending.Add(p.Amount)
		}
	}
	return t
}

// syncPaidTx rewrites the reservation's cached paid amount from its ledger.
func syncPaidTx(tx storage.Tx, r *models.Reservation) (ledgerTotals, error) {
	payments, err := tx.Payments(r.ID)
	if err != nil {
		return ledgerTotals{}, err
	}
	t := totals(payments)
	if !t.paid().Equal(r.PaidAmount) {
		r.PaidAmount = t.paid()
		if err := tx.SaveReservation(r); err != nil {
			return ledgerTotals{}, err
		}
	}
	return t, nil
}

// RecordPayment appends a payment. Bank transfers start pending until they
// are settled; everything else is completed at once.
func (l *Ledger) RecordPayment(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, invalid("payment amount must be positive, got %s", in.Amount)
	}
	method, err := models.ParsePaymentMethod(string(in.Method))
	if err != nil {
		return nil, invalid("%v", err)
	}
	p := &models.Payment{
		ID:            uuid.NewString(),
		ReservationID: in.ReservationID,
		Amount:        in.Amount,
		Method:        method,
		Status:        models.PaymentCompleted,
		Reference:     in.Reference,
		Notes:         in.Notes,
	}
	if method == models.MethodBankTransfer {
		p.Status = models.PaymentPending
	}
	err = l.store.Update(ctx, func(tx storage.Tx) error {
		r, err := tx.Reservation(in.ReservationID)
		if err != nil {
			return lookup(err, "reservation", in.ReservationID)
		}
		payments, err := tx.Payments(r.ID)
		if err != nil {
			return err
		}
		t := totals(payments)
		committed := t.paid().Add(t.pending).Add(p.Amount)
		if committed.GreaterThan(r.TotalAmount) && !in.AllowOverpayment {
			return fmt.Errorf("%w: %s would bring reservation %s to %s of %s, overpayment not allowed",
				ErrInvalidAmount, p.Amount.StringFixed(2), r.ID, committed.StringFixed(2), r.TotalAmount.StringFixed(2))
		}
		if err := tx.AppendPayment(p); err != nil {
			return err
		}
		if _, err := syncPaidTx(tx, r); err != nil {
			return err
		}
		return audit(ctx, tx, "payment.record", "payment", p.ID, "", nil, p)
	})
	if err != nil {
		return nil, unique(err)
	}
	l.log("services/ledger").WithFields(logrus.Fields{
		"reservation": p.ReservationID,
		"amount":      p.Amount.StringFixed(2),
		"status":      p.Status,
	}).Info("payment recorded")
	return p, nil
}

// SettlePayment resolves a pending entry: ok completes it, otherwise it is
// marked failed.
func (l *Ledger) SettlePayment(ctx context.Context, id string, ok bool) (*models.Payment, error) {
	status := models.PaymentFailed
	if ok {
		status = models.PaymentCompleted
	}
	var settled *models.Payment
	err := l.store.Update(ctx, func(tx storage.Tx) error {
		p, err := tx.Payment(id)
		if err != nil {
			return lookup(err, "payment", id)
		}
		if p.Status != models.PaymentPending {
			return fmt.Errorf("%w: payment %s is %s, only pending payments settle", ErrConflict, id, p.Status)
		}
		before := *p
		if err := tx.SettlePayment(id, status); err != nil {
			return err
		}
		p.Status = status
		r, err := tx.Reservation(p.ReservationID)
		if err != nil {
			return lookup(err, "reservation", p.ReservationID)
		}
		if _, err := syncPaidTx(tx, r); err != nil {
			return err
		}
		settled = p
		return audit(ctx, tx, "payment.settle", "payment", p.ID, "", before, p)
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// Refund returns part or all of a completed payment. Several partial refunds
// may be made until the original amount is used up.
func (l *Ledger) Refund(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) (*models.Payment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be positive, got %s", ErrInvalidAmount, amount)
	}
	var refund *models.Payment
	err := l.store.Update(ctx, func(tx storage.Tx) error {
		orig, err := tx.Payment(paymentID)
		if err != nil {
			return lookup(err, "payment", paymentID)
		}
		if orig.IsRefund() {
			return fmt.Errorf("%w: %s is itself a refund", ErrAlreadyRefunded, paymentID)
		}
		if orig.Status != models.PaymentCompleted {
			return fmt.Errorf("%w: no completed payment %s (status %s)", ErrNotFound, paymentID, orig.Status)
		}
		r, err := tx.Reservation(orig.ReservationID)
		if err != nil {
			return lookup(err, "reservation", orig.ReservationID)
		}
		payments, err := tx.Payments(r.ID)
		if err != nil {
			return err
		}
		remaining := orig.Amount.Sub(totals(payments).refundedOf[orig.ID])
		if !remaining.IsPositive() {
			return fmt.Errorf("%w: payment %s", ErrAlreadyRefunded, paymentID)
		}
		if amount.GreaterThan(remaining) {
			return fmt.Errorf("%w: refund of %s exceeds the %s still refundable on payment %s",
				ErrInvalidAmount, amount.StringFixed(2), remaining.StringFixed(2), paymentID)
		}
		refund = &models.Payment{
			ID:            uuid.NewString(),
			ReservationID: orig.ReservationID,
			Amount:        amount,
			Method:        orig.Method,
			Status:        models.PaymentRefunded,
			RefundOf:      orig.ID,
			Notes:         reason,
		}
		if err := tx.AppendPayment(refund); err != nil {
			return err
		}
		if _, err := syncPaidTx(tx, r); err != nil {
			return err
		}
		return audit(ctx, tx, "payment.refund", "payment", orig.ID, reason, nil, refund)
	})
	if err != nil {
		return nil, unique(err)
	}
	l.log("services/ledger").WithFields(logrus.Fields{
		"payment": paymentID,
		"amount":  amount.StringFixed(2),
	}).Info("payment refunded")
	return refund, nil
}

// BalanceDue is the reservation total minus what has been paid and not
// refunded. A negative balance is returned as is, together with
// ErrConsistency, so the overpayment is visible to the caller.
func (l *Ledger) BalanceDue(ctx context.Context, reservationID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := l.store.View(ctx, func(tx storage.Tx) error {
		r, err := tx.Reservation(reservationID)
		if err != nil {
			return lookup(err, "reservation", reservationID)
		}
		payments, err := tx.Payments(r.ID)
		if err != nil {
			return err
		}
		balance = r.TotalAmount.Sub(totals(payments).paid())
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	if balance.IsNegative() {
		return balance, fmt.Errorf("%w: reservation %s is overpaid by %s", ErrConsistency, reservationID, balance.Neg().StringFixed(2))
	}
	return balance, nil
}

func (l *Ledger) ListPayments(ctx context.Context, reservationID string) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := l.store.View(ctx, func(tx storage.Tx) error {
		if _, err := tx.Reservation(reservationID); err != nil {
			return lookup(err, "reservation", reservationID)
		}
		found, err := tx.Payments(reservationID)
		if err != nil {
			return err
		}
		payments = append(payments, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}
