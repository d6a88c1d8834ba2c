package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"household-tracker/internal/domain"
	"household-tracker/internal/repository"
	"household-tracker/internal/service"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

type ledgerEntryRequest struct {
	EntryType   string `json:"entry_type" binding:"required"`
	CategoryID  int64  `json:"category_id"`
	AmountMinor int64  `json:"amount_minor" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Description string `json:"description" binding:"required"`
	Memo        string `json:"memo"`
}

func (r ledgerEntryRequest) toDomain() (domain.LedgerEntry, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(r.Date))
	if err != nil {
		return domain.LedgerEntry{}, errors.New("date must be formatted as YYYY-MM-DD")
	}
	return domain.LedgerEntry{
		EntryType:   domain.EntryType(strings.ToLower(strings.TrimSpace(r.EntryType))),
		CategoryID:  r.CategoryID,
		AmountMinor: r.AmountMinor,
		Date:        date,
		Description: r.Description,
		Memo:        r.Memo,
	}, nil
}

type LedgerEntryResponse struct {
	ID          int64  `json:"id"`
	EntryType   string `json:"entry_type"`
	CategoryID  int64  `json:"category_id"`
	AmountMinor int64  `json:"amount_minor"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Memo        string `json:"memo"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (h *Handler) createEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ledgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := req.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.ledger.CreateEntry(c.Request.Context(), userID, entry)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entryToResponse(*created))
}

func (h *Handler) listEntries(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	filter, err := parseLedgerFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.ledger.ListEntries(c.Request.Context(), userID, filter)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	resp := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		resp[i] = entryToResponse(entries[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) totalEntries(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	filter, err := parseLedgerFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	total, err := h.ledger.Total(c.Request.Context(), userID, filter)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_minor": total})
}

type categoryTotalResponse struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	EntryType    string `json:"entry_type"`
	TotalMinor   int64  `json:"total_minor"`
}

type monthlySummaryResponse struct {
	Month                string                  `json:"month"`
	TotalsMinor          map[string]int64        `json:"totals_minor"`
	NetMinor             int64                   `json:"net_minor"`
	Categories           []categoryTotalResponse `json:"categories"`
	PreviousExpenseMinor int64                   `json:"previous_expense_minor"`
	ExpenseChangeMinor   int64                   `json:"expense_change_minor"`
	ExpenseChangePercent float64                 `json:"expense_change_percent"`
}

func (h *Handler) monthlySummary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	month, err := time.Parse(monthLayout, strings.TrimSpace(c.Query("month")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be formatted as YYYY-MM"})
		return
	}

	summary, err := h.ledger.MonthlySummary(c.Request.Context(), userID, month)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryToResponse(*summary))
}

func summaryToResponse(summary domain.MonthlySummary) monthlySummaryResponse {
	resp := monthlySummaryResponse{
		Month:                summary.Month.Format(monthLayout),
		TotalsMinor:          make(map[string]int64, len(summary.Totals)),
		Categories:           make([]categoryTotalResponse, len(summary.Categories)),
		PreviousExpenseMinor: summary.PreviousExpenseMinor,
	}
	for entryType, total := range summary.Totals {
		resp.TotalsMinor[string(entryType)] = total
	}
	for i, ct := range summary.Categories {
		resp.Categories[i] = categoryTotalResponse{
			CategoryID:   ct.CategoryID,
			CategoryName: ct.CategoryName,
			EntryType:    string(ct.EntryType),
			TotalMinor:   ct.AmountMinor,
		}
	}

	expense := summary.Totals[domain.EntryTypeExpense]
	resp.NetMinor = summary.Totals[domain.EntryTypeIncome] - expense - summary.Totals[domain.EntryTypeSavingInvestment]
	resp.ExpenseChangeMinor = expense - summary.PreviousExpenseMinor
	if summary.PreviousExpenseMinor > 0 {
		// percent rounded to two decimals
		ratio := float64(resp.ExpenseChangeMinor) / float64(summary.PreviousExpenseMinor)
		resp.ExpenseChangePercent = math.Round(ratio*10000) / 100
	}
	return resp
}

func (h *Handler) getEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := entryID(c)
	if !ok {
		return
	}

	entry, err := h.ledger.GetEntry(c.Request.Context(), userID, id)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryToResponse(*entry))
}

func (h *Handler) updateEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := entryID(c)
	if !ok {
		return
	}
	var req ledgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := req.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.ledger.UpdateEntry(c.Request.Context(), userID, id, entry)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryToResponse(*updated))
}

func (h *Handler) deleteEntry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := entryID(c)
	if !ok {
		return
	}

	if err := h.ledger.DeleteEntry(c.Request.Context(), userID, id); err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func entryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ledger entry id"})
		return 0, false
	}
	return id, true
}

func parseLedgerFilter(c *gin.Context) (domain.LedgerFilter, error) {
	filter := domain.LedgerFilter{
		EntryType: domain.EntryType(strings.ToLower(strings.TrimSpace(c.Query("type")))),
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return domain.LedgerFilter{}, errors.New("from must be formatted as YYYY-MM-DD")
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return domain.LedgerFilter{}, errors.New("to must be formatted as YYYY-MM-DD")
		}
		filter.To = t
	}
	return filter, nil
}

func writeLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "ledger entry not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func entryToResponse(entry domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:          entry.ID,
		EntryType:   string(entry.EntryType),
		CategoryID:  entry.CategoryID,
		AmountMinor: entry.AmountMinor,
		Date:        entry.Date.Format(dateLayout),
		Description: entry.Description,
		Memo:        entry.Memo,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   entry.UpdatedAt.Format(time.RFC3339),
	}
}
