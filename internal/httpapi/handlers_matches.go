package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MarkoPoloResearchLab/bookledger/internal/ledgerio"
	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (handler *httpHandler) handleListMatches(ctx *gin.Context) {
	matches, err := handler.service.ListMatches(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		handler.respondError(ctx, "list matches", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"matches": newMatchPayloads(matches)})
}

func (handler *httpHandler) handleCreateMatch(ctx *gin.Context) {
	var request createMatchRequest
	if !bindJSON(ctx, &request) {
		return
	}
	match, err := handler.service.CreateMatch(ctx.Request.Context(), book.MatchInput{
		Name:      request.Name,
		TeamA:     request.TeamA,
		TeamB:     request.TeamB,
		StartTime: request.StartTime,
	})
	if err != nil {
		handler.respondError(ctx, "create match", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"match": newMatchPayload(match)})
}

func (handler *httpHandler) handleGetMatch(ctx *gin.Context) {
	matchID, ok := handler.matchIDParam(ctx)
	if !ok {
		return
	}
	match, err := handler.service.GetMatch(ctx.Request.Context(), matchID)
	if err != nil {
		handler.respondError(ctx, "get match", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"match": newMatchPayload(match)})
}

func (handler *httpHandler) handleUpdateMatch(ctx *gin.Context) {
	matchID, ok := handler.matchIDParam(ctx)
	if !ok {
		return
	}
	var request updateMatchRequest
	if !bindJSON(ctx, &request) {
		return
	}
	update := book.MatchUpdate{
		Name:      request.Name,
		TeamA:     request.TeamA,
		TeamB:     request.TeamB,
		StartTime: request.StartTime,
	}
	if request.Status != nil {
		status, err := book.ParseMatchStatus(*request.Status)
		if err != nil {
			handler.respondError(ctx, "update match", err)
			return
		}
		update.Status = &status
	}
	match, err := handler.service.UpdateMatch(ctx.Request.Context(), matchID, update)
	if err != nil {
		handler.respondError(ctx, "update match", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"match": newMatchPayload(match)})
}

func (handler *httpHandler) handleDeleteMatch(ctx *gin.Context) {
	matchID, ok := handler.matchIDParam(ctx)
	if !ok {
		return
	}
	if err := handler.service.DeleteMatch(ctx.Request.Context(), matchID); err != nil {
		handler.respondError(ctx, "delete match", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleListMatchEntries(ctx *gin.Context) {
	matchID, ok := handler.matchIDParam(ctx)
	if !ok {
		return
	}
	entries, err := handler.service.ListMatchEntries(ctx.Request.Context(), matchID)
	if err != nil {
		handler.respondError(ctx, "list entries", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"entries": newEntryPayloads(entries)})
}

func (handler *httpHandler) handleAddEntry(ctx *gin.Context) {
	matchID, ok := handler.matchIDParam(ctx)
	if !ok {
		return
	}
	var request createEntryRequest
	if !bindJSON(ctx, &request) {
		return
	}
	customerID, err := book.NewCustomerID(request.CustomerID)
	if err != nil {
		handler.respondError(ctx, "add entry", err)
		return
	}
	entry, err := handler.service.AddEntry(ctx.Request.Context(), book.EntryInput{
		CustomerID:   customerID,
		MatchID:      matchID,
		ExposureA:    request.ExposureA,
		ExposureB:    request.ExposureB,
		SharePercent: request.SharePercent,
	})
	if err != nil {
		handler.respondError(ctx, "add entry", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"entry": newEntryPayload(entry)})
}

func (handler *httpHandler) handleSummary(ctx *gin.Context) {
	matchID, ok := handler.matchIDParam(ctx)
	if !ok {
		return
	}
	summary, err := handler.service.Summary(ctx.Request.Context(), matchID)
	if err != nil {
		handler.respondError(ctx, "summary", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"summary": newSummaryPayload(summary)})
}

func (handler *httpHandler) handleSettle(ctx *gin.Context) {
	matchID, ok := handler.matchIDParam(ctx)
	if !ok {
		return
	}
	var request settleRequest
	if !bindJSON(ctx, &request) {
		return
	}
	side, err := book.ParseSide(request.WinningSide)
	if err != nil {
		handler.respondError(ctx, "settle match", err)
		return
	}
	settlement, err := handler.service.SettleMatch(ctx.Request.Context(), matchID, side)
	if err != nil {
		handler.respondError(ctx, "settle match", err)
		return
	}
	handler.metrics.settlements.WithLabelValues(side.String()).Inc()
	ctx.JSON(http.StatusCreated, gin.H{"settlement": newSettlementPayload(settlement)})
}

func (handler *httpHandler) handleConvert(ctx *gin.Context) {
	matchID, ok := handler.matchIDParam(ctx)
	if !ok {
		return
	}
	request, ok := handler.bindConvertRequest(ctx, "convert entry")
	if !ok {
		return
	}
	entry, err := handler.service.ConvertToEntry(ctx.Request.Context(), matchID, request)
	if err != nil {
		handler.respondError(ctx, "convert entry", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"entry": newEntryPayload(entry)})
}

func (handler *httpHandler) handlePreviewConversion(ctx *gin.Context) {
	request, ok := handler.bindConvertRequest(ctx, "preview conversion")
	if !ok {
		return
	}
	exposure, err := book.PreviewConversion(request)
	if err != nil {
		handler.respondError(ctx, "preview conversion", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"exposure": exposurePayload{
		ExposureA: exposure.ExposureA,
		ExposureB: exposure.ExposureB,
	}})
}

func (handler *httpHandler) handleImport(ctx *gin.Context) {
	matchID, ok := handler.matchIDParam(ctx)
	if !ok {
		return
	}
	body := http.MaxBytesReader(ctx.Writer, ctx.Request.Body, handler.cfg.MaxImportBytes)
	rows, err := ledgerio.ParseCSV(body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			ctx.JSON(http.StatusRequestEntityTooLarge, errorResponse("payload_too_large", "csv body exceeds size limit"))
			return
		}
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_csv", err.Error()))
		return
	}
	entries, err := handler.service.ImportEntries(ctx.Request.Context(), matchID, rows)
	if err != nil {
		handler.respondError(ctx, "import entries", err)
		return
	}
	handler.metrics.importedEntries.Add(float64(len(entries)))
	ctx.JSON(http.StatusCreated, gin.H{"count": len(entries), "entries": newEntryPayloads(entries)})
}

func (handler *httpHandler) handleExport(ctx *gin.Context) {
	matchID, ok := handler.matchIDParam(ctx)
	if !ok {
		return
	}
	format, err := ledgerio.ParseFormat(ctx.Query("format"))
	if err != nil {
		handler.respondError(ctx, "export", err)
		return
	}
	match, err := handler.service.GetMatch(ctx.Request.Context(), matchID)
	if err != nil {
		handler.respondError(ctx, "export", err)
		return
	}
	entries, err := handler.service.ListMatchEntries(ctx.Request.Context(), matchID)
	if err != nil {
		handler.respondError(ctx, "export", err)
		return
	}
	var buffer bytes.Buffer
	if err := ledgerio.Export(&buffer, format, match, entries); err != nil {
		handler.respondError(ctx, "export", err)
		return
	}
	ctx.Header("Content-Disposition", attachment(format.FileName(match)))
	ctx.Data(http.StatusOK, format.ContentType(), buffer.Bytes())
}

func (handler *httpHandler) handleStatement(ctx *gin.Context) {
	matchID, ok := handler.matchIDParam(ctx)
	if !ok {
		return
	}
	match, err := handler.service.GetMatch(ctx.Request.Context(), matchID)
	if err != nil {
		handler.respondError(ctx, "statement", err)
		return
	}
	settlement, err := handler.service.GetSettlement(ctx.Request.Context(), matchID)
	if err != nil {
		handler.respondError(ctx, "statement", err)
		return
	}
	entries, err := handler.service.ListMatchEntries(ctx.Request.Context(), matchID)
	if err != nil {
		handler.respondError(ctx, "statement", err)
		return
	}
	content, err := ledgerio.BuildStatementPDF(match, settlement, entries)
	if err != nil {
		handler.logger.Error("statement render failed", zap.String("match_id", matchID.String()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("render_error", "statement unavailable"))
		return
	}
	ctx.Header("Content-Disposition", attachment("statement-"+matchID.String()+".pdf"))
	ctx.Data(http.StatusOK, "application/pdf", content)
}

func (handler *httpHandler) handleUpdateEntry(ctx *gin.Context) {
	entryID, err := book.NewEntryID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, "update entry", err)
		return
	}
	var request updateEntryRequest
	if !bindJSON(ctx, &request) {
		return
	}
	update := book.EntryUpdate{
		ExposureA:    request.ExposureA,
		ExposureB:    request.ExposureB,
		SharePercent: request.SharePercent,
	}
	if request.CustomerID != nil {
		customerID, err := book.NewCustomerID(*request.CustomerID)
		if err != nil {
			handler.respondError(ctx, "update entry", err)
			return
		}
		update.CustomerID = &customerID
	}
	entry, err := handler.service.UpdateEntry(ctx.Request.Context(), entryID, update)
	if err != nil {
		handler.respondError(ctx, "update entry", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"entry": newEntryPayload(entry)})
}

func (handler *httpHandler) handleDeleteEntry(ctx *gin.Context) {
	entryID, err := book.NewEntryID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, "delete entry", err)
		return
	}
	if err := handler.service.DeleteEntry(ctx.Request.Context(), entryID); err != nil {
		handler.respondError(ctx, "delete entry", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleListSettlements(ctx *gin.Context) {
	settlements, err := handler.service.ListSettlements(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, "list settlements", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"settlements": newSettlementPayloads(settlements)})
}

func (handler *httpHandler) handleDashboard(ctx *gin.Context) {
	dashboard, err := handler.service.Dashboard(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, "dashboard", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"dashboard": newDashboardPayload(dashboard)})
}

func (handler *httpHandler) matchIDParam(ctx *gin.Context) (book.MatchID, bool) {
	matchID, err := book.NewMatchID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, "parse match id", err)
		return book.MatchID{}, false
	}
	return matchID, true
}

func (handler *httpHandler) bindConvertRequest(ctx *gin.Context, action string) (book.ConvertRequest, bool) {
	var request convertRequest
	if !bindJSON(ctx, &request) {
		return book.ConvertRequest{}, false
	}
	side, err := book.ParseSide(request.Side)
	if err != nil {
		handler.respondError(ctx, action, err)
		return book.ConvertRequest{}, false
	}
	return book.ConvertRequest{
		Name:         request.Name,
		Stake:        request.Stake,
		Odds:         request.Odds,
		Side:         side,
		SharePercent: request.SharePercent,
	}, true
}

func bindJSON(ctx *gin.Context, target any) bool {
	if err := ctx.ShouldBindJSON(target); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return false
	}
	return true
}

func attachment(fileName string) string {
	return fmt.Sprintf("attachment; filename=%q", fileName)
}
