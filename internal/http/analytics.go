package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"finance-tracker/internal/domain"
)

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		abortMessage(c, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return v, true
}

// parsePeriodFilter reads period/year/month. Missing values are left zero and
// defaulted by the analytics service.
func parsePeriodFilter(c *gin.Context) (domain.PeriodFilter, bool) {
	year, ok := queryInt(c, "year")
	if !ok {
		return domain.PeriodFilter{}, false
	}
	month, ok := queryInt(c, "month")
	if !ok {
		return domain.PeriodFilter{}, false
	}
	return domain.PeriodFilter{
		Period: domain.Period(strings.TrimSpace(c.Query("period"))),
		Year:   year,
		Month:  month,
	}, true
}

func (h *Handler) dashboard(c *gin.Context) {
	f, ok := parsePeriodFilter(c)
	if !ok {
		return
	}
	p, _ := currentPrincipal(c)
	summary, err := h.analytics.Dashboard(c.Request.Context(), p, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) monthlyTrends(c *gin.Context) {
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	p, _ := currentPrincipal(c)
	trends, err := h.analytics.MonthlyTrends(c.Request.Context(), p, year)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trends)
}

func (h *Handler) categoryBreakdown(c *gin.Context) {
	f, ok := parsePeriodFilter(c)
	if !ok {
		return
	}
	p, _ := currentPrincipal(c)
	rows, err := h.analytics.CategoryBreakdown(c.Request.Context(), p, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) incomeVsExpense(c *gin.Context) {
	f, ok := parsePeriodFilter(c)
	if !ok {
		return
	}
	p, _ := currentPrincipal(c)
	rows, err := h.analytics.IncomeVsExpense(c.Request.Context(), p, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
