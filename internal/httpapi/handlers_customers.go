package httpapi

import (
	"net/http"

	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
	"github.com/gin-gonic/gin"
)

func (handler *httpHandler) handleListCustomers(ctx *gin.Context) {
	customers, err := handler.service.ListCustomers(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		handler.respondError(ctx, "list customers", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"customers": newCustomerPayloads(customers)})
}

func (handler *httpHandler) handleCreateCustomer(ctx *gin.Context) {
	var request createCustomerRequest
	if !bindJSON(ctx, &request) {
		return
	}
	customer, err := handler.service.CreateCustomer(ctx.Request.Context(), book.CustomerInput{
		Name:        request.Name,
		Email:       request.Email,
		Phone:       request.Phone,
		CreditLimit: request.CreditLimit,
		Notes:       request.Notes,
	})
	if err != nil {
		handler.respondError(ctx, "create customer", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"customer": newCustomerPayload(customer)})
}

func (handler *httpHandler) handleGetCustomer(ctx *gin.Context) {
	customerID, ok := handler.customerIDParam(ctx)
	if !ok {
		return
	}
	customer, err := handler.service.GetCustomer(ctx.Request.Context(), customerID)
	if err != nil {
		handler.respondError(ctx, "get customer", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"customer": newCustomerPayload(customer)})
}

func (handler *httpHandler) handleUpdateCustomer(ctx *gin.Context) {
	customerID, ok := handler.customerIDParam(ctx)
	if !ok {
		return
	}
	var request updateCustomerRequest
	if !bindJSON(ctx, &request) {
		return
	}
	update := book.CustomerUpdate{
		Name:        request.Name,
		Email:       request.Email,
		Phone:       request.Phone,
		CreditLimit: request.CreditLimit,
		Notes:       request.Notes,
	}
	if request.Status != nil {
		status, err := book.ParseCustomerStatus(*request.Status)
		if err != nil {
			handler.respondError(ctx, "update customer", err)
			return
		}
		update.Status = &status
	}
	customer, err := handler.service.UpdateCustomer(ctx.Request.Context(), customerID, update)
	if err != nil {
		handler.respondError(ctx, "update customer", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"customer": newCustomerPayload(customer)})
}

func (handler *httpHandler) handleDeleteCustomer(ctx *gin.Context) {
	customerID, ok := handler.customerIDParam(ctx)
	if !ok {
		return
	}
	if err := handler.service.DeleteCustomer(ctx.Request.Context(), customerID); err != nil {
		handler.respondError(ctx, "delete customer", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleListCustomerEntries(ctx *gin.Context) {
	customerID, ok := handler.customerIDParam(ctx)
	if !ok {
		return
	}
	entries, err := handler.service.ListCustomerEntries(ctx.Request.Context(), customerID)
	if err != nil {
		handler.respondError(ctx, "list customer entries", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"entries": newEntryPayloads(entries)})
}

func (handler *httpHandler) handleCustomerStats(ctx *gin.Context) {
	stats, err := handler.service.CustomerStatistics(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, "customer stats", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"customers": newCustomerStatsPayloads(stats)})
}

func (handler *httpHandler) customerIDParam(ctx *gin.Context) (book.CustomerID, bool) {
	customerID, err := book.NewCustomerID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, "parse customer id", err)
		return book.CustomerID{}, false
	}
	return customerID, true
}
