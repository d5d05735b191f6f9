package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/rentalhub/pricing-api/internal/service"
	"github.com/rentalhub/pricing-api/internal/utils"
)

// maxCSVSize bounds uploaded CSV payloads (8 MiB).
const maxCSVSize = 8 << 20

// ImportHandler handles CSV price imports.
type ImportHandler struct {
	svc *service.ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

// ImportPrices imports prices from an uploaded CSV. The CSV may arrive as a
// multipart form file under "csv_file" or as the raw request body. Row and
// cell failures are reported inside the result payload, not as transport
// errors; the endpoint itself only fails on a missing payload or an
// unexpected server fault.
// POST /v1/pricing/prices/import
func (h *ImportHandler) ImportPrices(c *gin.Context) {
	ctx := c.Request.Context()

	csvText, err := h.readCSV(c)
	if err != nil {
		log.Error().Err(err).Msg("failed to read import payload")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read CSV payload")
		return
	}
	if strings.TrimSpace(csvText) == "" {
		utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "CSV content is empty")
		return
	}

	result := h.svc.ImportFromCSV(ctx, csvText)
	if result.Success {
		log.Info().
			Int("processed_rows", result.ProcessedRows).
			Int("created_prices", result.CreatedPrices).
			Int("updated_prices", result.UpdatedPrices).
			Msg("price import completed")
	} else {
		log.Warn().
			Int("processed_rows", result.ProcessedRows).
			Int("error_count", len(result.Errors)).
			Msg("price import completed with errors")
	}
	utils.Success(c, http.StatusOK, "Import processed", result)
}

// readCSV extracts CSV text from the multipart "csv_file" field when
// present, falling back to the raw request body.
func (h *ImportHandler) readCSV(c *gin.Context) (string, error) {
	if file, err := c.FormFile("csv_file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxCSVSize))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCSVSize))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
