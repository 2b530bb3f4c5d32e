package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/okian/housecup/internal/domain/export"
	"github.com/okian/housecup/pkg/metrics"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves downloadable results files built from the cache.
type ExportHandler struct {
	reader Reader
}

// NewExportHandler creates a new export handler.
func NewExportHandler(reader Reader) *ExportHandler {
	return &ExportHandler{reader: reader}
}

// HandleCSV handles GET /export/results.csv.
func (h *ExportHandler) HandleCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	body := export.CSVString(h.reader.View().Events)
	metrics.RecordExport("csv")
	attachment(w, "text/csv; charset=utf-8", export.CSVFilename, len(body))
	_, _ = w.Write([]byte(body))
}

// HandleXLSX handles GET /export/results.xlsx.
func (h *ExportHandler) HandleXLSX(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_xlsx"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	var buf bytes.Buffer
	if err := export.XLSX(&buf, h.reader.View().Events); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	metrics.RecordExport("xlsx")
	attachment(w, xlsxContentType, export.XLSXFilename, buf.Len())
	_, _ = w.Write(buf.Bytes())
}

func attachment(w http.ResponseWriter, contentType, filename string, size int) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(size))
	w.WriteHeader(http.StatusOK)
}
