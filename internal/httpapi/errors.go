package httpapi

import (
	"errors"
	"net/http"

	"github.com/MarkoPoloResearchLab/bookledger/internal/ledgerio"
	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{target: book.ErrMatchNotFound, status: http.StatusNotFound, code: "match_not_found"},
	{target: book.ErrCustomerNotFound, status: http.StatusNotFound, code: "customer_not_found"},
	{target: book.ErrEntryNotFound, status: http.StatusNotFound, code: "entry_not_found"},
	{target: book.ErrSettlementNotFound, status: http.StatusNotFound, code: "settlement_not_found"},
	{target: book.ErrMatchAlreadySettled, status: http.StatusConflict, code: "match_settled"},
	{target: book.ErrDuplicateSettlement, status: http.StatusConflict, code: "match_settled"},
	{target: book.ErrDuplicateCustomer, status: http.StatusConflict, code: "duplicate_customer"},
	{target: book.ErrInvalidStatusTransition, status: http.StatusConflict, code: "invalid_status_transition"},
	{target: book.ErrInvalidMatchID, status: http.StatusBadRequest, code: "invalid_match_id"},
	{target: book.ErrInvalidCustomerID, status: http.StatusBadRequest, code: "invalid_customer_id"},
	{target: book.ErrInvalidEntryID, status: http.StatusBadRequest, code: "invalid_entry_id"},
	{target: book.ErrInvalidName, status: http.StatusUnprocessableEntity, code: "invalid_name"},
	{target: book.ErrInvalidSide, status: http.StatusUnprocessableEntity, code: "invalid_side"},
	{target: book.ErrInvalidMatchStatus, status: http.StatusUnprocessableEntity, code: "invalid_status"},
	{target: book.ErrInvalidCustomerStatus, status: http.StatusUnprocessableEntity, code: "invalid_status"},
	{target: book.ErrInvalidSharePercent, status: http.StatusUnprocessableEntity, code: "invalid_share_percent"},
	{target: book.ErrInvalidExposure, status: http.StatusUnprocessableEntity, code: "invalid_exposure"},
	{target: book.ErrInvalidStake, status: http.StatusUnprocessableEntity, code: "invalid_stake"},
	{target: book.ErrInvalidOdds, status: http.StatusUnprocessableEntity, code: "invalid_odds"},
	{target: book.ErrInvalidEmail, status: http.StatusUnprocessableEntity, code: "invalid_email"},
	{target: book.ErrInvalidCreditLimit, status: http.StatusUnprocessableEntity, code: "invalid_credit_limit"},
	{target: ledgerio.ErrUnknownFormat, status: http.StatusBadRequest, code: "invalid_format"},
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// respondError maps domain failures to status codes. Anything unrecognised is
// logged and reported as an internal error without leaking details.
func (handler *httpHandler) respondError(ctx *gin.Context, action string, err error) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			ctx.JSON(mapping.status, errorResponse(mapping.code, err.Error()))
			return
		}
	}
	handler.logger.Error(action+" failed", zap.Error(err))
	ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", action+" failed"))
}
