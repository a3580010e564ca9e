package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/service"
)

type transactionRequest struct {
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        domain.Date     `json:"date"`
}

func (r transactionRequest) toDomain() domain.Transaction {
	return domain.Transaction{
		Type:        domain.TransactionType(r.Type),
		Category:    r.Category,
		Amount:      r.Amount,
		Description: r.Description,
		Date:        r.Date,
	}
}

type TransactionResponse struct {
	ID          int64                  `json:"id"`
	UserID      int64                  `json:"user_id"`
	Type        domain.TransactionType `json:"type"`
	Category    string                 `json:"category"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description"`
	Date        domain.Date            `json:"date"`
}

func transactionToResponse(tx domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Type:        tx.Type,
		Category:    tx.Category,
		Amount:      tx.Amount,
		Description: tx.Description,
		Date:        tx.Date,
	}
}

// parseListFilter reads the type/category/startDate/endDate query parameters.
func parseListFilter(c *gin.Context) (service.ListFilter, string) {
	f := service.ListFilter{
		Type:     domain.TransactionType(strings.TrimSpace(c.Query("type"))),
		Category: strings.TrimSpace(c.Query("category")),
	}
	if s := c.Query("startDate"); s != "" {
		d, err := domain.ParseDate(s)
		if err != nil {
			return f, "startDate must be YYYY-MM-DD"
		}
		f.StartDate = d
	}
	if s := c.Query("endDate"); s != "" {
		d, err := domain.ParseDate(s)
		if err != nil {
			return f, "endDate must be YYYY-MM-DD"
		}
		f.EndDate = d
	}
	return f, ""
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortMessage(c, http.StatusBadRequest, "invalid transaction id")
		return 0, false
	}
	return id, true
}

func (h *Handler) listTransactions(c *gin.Context) {
	filter, msg := parseListFilter(c)
	if msg != "" {
		abortMessage(c, http.StatusBadRequest, msg)
		return
	}

	p, _ := currentPrincipal(c)
	txs, err := h.transactions.List(c.Request.Context(), p, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]TransactionResponse, len(txs))
	for i := range txs {
		resp[i] = transactionToResponse(txs[i])
	}
	c.JSON(http.StatusOK, gin.H{"transactions": resp})
}

func (h *Handler) createTransaction(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, _ := currentPrincipal(c)
	tx, err := h.transactions.Create(c.Request.Context(), p, req.toDomain())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Transaction added",
		"insertId": tx.ID,
	})
}

func (h *Handler) updateTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, _ := currentPrincipal(c)
	if _, err := h.transactions.Update(c.Request.Context(), p, id, req.toDomain()); err != nil {
		h.respondTransactionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction updated"})
}

func (h *Handler) deleteTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	p, _ := currentPrincipal(c)
	if err := h.transactions.Delete(c.Request.Context(), p, id); err != nil {
		h.respondTransactionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

func (h *Handler) respondTransactionError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		abortMessage(c, http.StatusNotFound, "Transaction not found or unauthorized")
		return
	}
	h.respondError(c, err)
}
