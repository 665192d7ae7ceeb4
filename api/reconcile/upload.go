package reconcile

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/19taurus79/EridonAPI/api/constants"
	"github.com/19taurus79/EridonAPI/internal/config"
	"github.com/19taurus79/EridonAPI/internal/matching"
	"github.com/19taurus79/EridonAPI/internal/notification"
	"github.com/19taurus79/EridonAPI/internal/resource"
	"github.com/19taurus79/EridonAPI/internal/session"
)

// Helper: get file extension
func getFileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Helper: parse uploaded report into [][]string
func parseReportFile(file multipart.File, ext string) ([][]string, error) {
	switch ext {
	case ".csv":
		r := csv.NewReader(file)
		r.FieldsPerRecord = -1
		return r.ReadAll()
	case ".xlsx":
		f, err := excelize.OpenReader(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sheet := f.GetSheetName(0)
		return f.GetRows(sheet)
	case ".xls":
		wb, err := xls.OpenReader(file, "utf-8")
		if err != nil {
			return nil, err
		}
		return wb.ReadAllCells(1 << 16), nil
	}
	return nil, errors.New("unsupported file type")
}

func readMultipartReport(r *http.Request, field string) ([][]string, error) {
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, errors.New(constants.ErrMissingFile)
	}
	fh := headers[0]
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	rows, err := parseReportFile(file, getFileExt(fh.Filename))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New(constants.ErrEmptyFile)
	}
	return rows, nil
}

// Handler: UploadHandler accepts the two reports, runs normalization and the
// auto-match pass on the worker pool, captures the unresolved remainder in a
// fresh session and returns its id together with the leftovers view. A parse
// failure in either file aborts the whole upload; no partial session is ever
// created.
func UploadHandler(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
			http.Error(w, constants.ErrFileUploadFailed, http.StatusBadRequest)
			return
		}
		orderedRows, err := readMultipartReport(r, "ordered_file")
		if err != nil {
			http.Error(w, constants.FormatError(constants.ErrInvalidFileFormat, err), http.StatusBadRequest)
			return
		}
		movedRows, err := readMultipartReport(r, "moved_file")
		if err != nil {
			http.Error(w, constants.FormatError(constants.ErrInvalidFileFormat, err), http.StatusBadRequest)
			return
		}

		type uploadResult struct {
			state     *session.State
			matched   int
			leftovers map[string]interface{}
			err       error
		}
		done := make(chan uploadResult, 1)
		resource.GlobalPool().Submit(func() {
			ordered, err := matching.NormalizeOrdered(orderedRows)
			if err != nil {
				done <- uploadResult{err: err}
				return
			}
			moved, err := matching.NormalizeMoved(movedRows)
			if err != nil {
				done <- uploadResult{err: err}
				return
			}
			units := matching.BuildUnits(ordered, moved)
			matched, leftovers := matching.AutoMatchAll(units)
			st := sessions.Create(leftovers, matched)
			done <- uploadResult{
				state:     st,
				matched:   len(matched),
				leftovers: matching.LeftoversView(leftovers),
			}
		})
		res := <-done
		if res.err != nil {
			var parseErr *matching.ParseError
			if errors.As(res.err, &parseErr) {
				http.Error(w, constants.FormatError(constants.ErrFileParsingFailed, parseErr), http.StatusBadRequest)
				return
			}
			http.Error(w, constants.ErrInternalServer, http.StatusInternalServerError)
			return
		}

		notification.Default.UploadProcessed(res.state.ID, res.matched, len(res.leftovers))

		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"session_id": res.state.ID,
			"leftovers":  res.leftovers,
		})
	}
}
