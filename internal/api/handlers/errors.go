package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var statusByKind = map[domain.ErrorKind]int{
	domain.KindNotFound:            http.StatusNotFound,
	domain.KindUnknownProduct:      http.StatusNotFound,
	domain.KindValidation:          http.StatusBadRequest,
	domain.KindInsufficientStock:   http.StatusUnprocessableEntity,
	domain.KindUpstreamTimeout:     http.StatusGatewayTimeout,
	domain.KindUpstreamUnavailable: http.StatusServiceUnavailable,
	domain.KindConflict:            http.StatusConflict,
	domain.KindInternal:            http.StatusInternalServerError,
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByKind[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(err)

	message := domain.MessageOf(err)
	if kind == domain.KindInternal {
		// internal details stay in the log
		message = "internal error"
	}

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("kind", string(kind)).
		Str("path", c.Request.URL.Path).
		Int("status", status).
		Msg("request failed")

	c.AbortWithStatusJSON(status, gin.H{"error": message, "kind": kind})
}

func badRequest(c *gin.Context, format string, args ...any) {
	respondError(c, domain.Validation(format, args...))
}

func wantsCSV(c *gin.Context) bool {
	return strings.EqualFold(strings.TrimSpace(c.Query("format")), "csv")
}

// writeCSV streams a CSV body produced by write.
func writeCSV(c *gin.Context, filename string, write func(w gin.ResponseWriter) error) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := write(c.Writer); err != nil {
		log.Error().Err(err).Str("file", filename).Msg("csv export failed")
	}
}
