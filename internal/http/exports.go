package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/export"
	"finance-tracker/internal/service"
)

type exportRequest struct {
	Format    string `json:"format"`
	Type      string `json:"type"`
	Category  string `json:"category"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (r exportRequest) filter() (service.ListFilter, error) {
	f := service.ListFilter{
		Type:     domain.TransactionType(strings.TrimSpace(r.Type)),
		Category: strings.TrimSpace(r.Category),
	}
	var err error
	if r.StartDate != "" {
		if f.StartDate, err = domain.ParseDate(r.StartDate); err != nil {
			return f, fmt.Errorf("startDate must be YYYY-MM-DD")
		}
	}
	if r.EndDate != "" {
		if f.EndDate, err = domain.ParseDate(r.EndDate); err != nil {
			return f, fmt.Errorf("endDate must be YYYY-MM-DD")
		}
	}
	return f, nil
}

func (h *Handler) exportTransactions(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		abortMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	filter, msg := parseListFilter(c)
	if msg != "" {
		abortMessage(c, http.StatusBadRequest, msg)
		return
	}

	p, _ := currentPrincipal(c)
	var buf bytes.Buffer
	if err := h.exports.Render(c.Request.Context(), p, filter, format, &buf); err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions-%s.%s", h.now().UTC().Format("20060102"), format.Extension())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *Handler) createExport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		abortMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := req.filter()
	if err != nil {
		abortMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	p, _ := currentPrincipal(c)
	archive, err := h.exports.Archive(c.Request.Context(), p, filter, format)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"location": archive.Location,
		"key":      archive.Key,
		"size":     archive.Size,
	})
}

type ExportResponse struct {
	Key          string  `json:"key"`
	URL          string  `json:"url"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
}

func (h *Handler) listExports(c *gin.Context) {
	p, _ := currentPrincipal(c)
	archives, err := h.exports.ListArchives(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]ExportResponse, len(archives))
	for i, a := range archives {
		resp[i] = ExportResponse{Key: a.Key, URL: a.URL, Size: a.Size}
		if a.LastModified != nil && !a.LastModified.IsZero() {
			v := a.LastModified.Format(time.RFC3339)
			resp[i].LastModified = &v
		}
	}
	c.JSON(http.StatusOK, gin.H{"exports": resp})
}
