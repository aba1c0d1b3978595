package utils

import (
	"errors"
	"net/http"

	"frontdesk-server/services"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

func JSONError(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"error": code, "message": message})
}

var errorKinds = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrValidation, http.StatusBadRequest, "validation_error"},
	{services.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrOverlap, http.StatusConflict, "overlap"},
	{services.ErrConflict, http.StatusConflict, "conflict"},
	{services.ErrAlreadyRefunded, http.StatusConflict, "already_refunded"},
	{services.ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid_transition"},
	{services.ErrPrematureTransition, http.StatusUnprocessableEntity, "premature_transition"},
	{services.ErrConsistency, http.StatusUnprocessableEntity, "consistency_error"},
}

// StatusFor maps a service error to its HTTP status and error code. ok is
// false for errors the services do not classify.
func StatusFor(err error) (status int, code string, ok bool) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.code, true
		}
	}
	return http.StatusInternalServerError, "server_error", false
}

// HandleServiceError writes the error body for err and reports whether the
// error was one the caller can correct.
func HandleServiceError(ctx iris.Context, err error) bool {
	status, code, ok := StatusFor(err)
	if !ok {
		JSONError(ctx, status, code, "something went wrong")
		return false
	}
	JSONError(ctx, status, code, err.Error())
	return true
}

func HandleValidationErrors(err error, ctx iris.Context) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		JSONError(ctx, http.StatusBadRequest, "bad_request", "invalid request payload")
		return
	}
	fields := make([]iris.Map, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, iris.Map{"field": fe.Field(), "rule": fe.Tag(), "param": fe.Param()})
	}
	ctx.StatusCode(http.StatusBadRequest)
	ctx.JSON(iris.Map{"error": "validation_error", "message": "invalid input", "fields": fields})
}
