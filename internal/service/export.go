package service

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"electrometer_acquisition/internal/logger"
	"electrometer_acquisition/internal/models"
	"electrometer_acquisition/internal/repository"
)

// Export formats.
const (
	FormatCSV     = "csv"
	FormatArchive = "archive"
)

var (
	// ErrNoData rejects an export of an empty session buffer.
	ErrNoData = errors.New("no data to export")
	// ErrUnknownFormat rejects formats other than csv/archive.
	ErrUnknownFormat = errors.New("unknown export format")
)

// exportColumns is the fixed column order for both formats.
var exportColumns = []string{"pc_time_s", "reading_V", "inst_time", "status"}

// archiveEntryName is the single entry inside the archive export.
const archiveEntryName = "samples.json"

type ExportService struct {
	recorder *RecorderService
	events   repository.EventRepo
	log      *logger.Logger
}

func NewExportService(recorder *RecorderService, events repository.EventRepo, log *logger.Logger) *ExportService {
	return &ExportService{recorder: recorder, events: events, log: log}
}

// Export serializes the current session buffer. It reads a snapshot, so an
// active run is unaffected. Returns the path actually written.
func (s *ExportService) Export(ctx context.Context, format, path string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))

	samples := s.recorder.Snapshot()
	if len(samples) == 0 {
		return "", ErrNoData
	}

	var (
		out string
		err error
	)
	switch format {
	case FormatCSV:
		out = resolvePath(path, "csv")
		err = writeCSV(out, samples)
	case FormatArchive:
		out = resolvePath(path, "zip")
		err = writeArchive(out, samples)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return "", fmt.Errorf("export %s: %w", format, err)
	}

	desc := fmt.Sprintf("Exported %d samples to %s", len(samples), out)
	if aerr := s.events.Append(ctx, models.SessionEvent{Type: models.EventTypeExport, Description: desc}); aerr != nil {
		s.log.Errorw("event_append_failed", "type", models.EventTypeExport, "err", aerr)
	}
	s.log.Infow("export_written", "format", format, "path", out, "samples", len(samples))
	return out, nil
}

// resolvePath turns an empty path or a directory into a timestamped file
// name (k6514_YYYYMMDD_HHMMSS.ext), and leaves explicit file paths alone.
func resolvePath(path, ext string) string {
	name := "k6514_" + time.Now().Format("20060102_150405") + "." + ext
	if path == "" {
		return name
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, name)
	}
	if strings.HasSuffix(path, string(os.PathSeparator)) {
		return filepath.Join(path, name)
	}
	return path
}

// writeCSV emits a header row plus one row per sample. Absent instrument
// time/status fields render as NaN, which FormatFloat produces natively.
func writeCSV(path string, samples []models.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportColumns); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			formatFloat(s.PCTime),
			formatFloat(s.Reading),
			formatFloat(s.InstTime),
			formatFloat(s.Status),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// archivePayload is the single JSON document inside the zip entry: a
// row-major 2-D array plus the parallel column-name array.
type archivePayload struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

func writeArchive(path string, samples []models.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entry, err := zw.Create(archiveEntryName)
	if err != nil {
		return err
	}

	payload := archivePayload{
		Columns: exportColumns,
		Data:    make([][]any, 0, len(samples)),
	}
	for _, s := range samples {
		payload.Data = append(payload.Data, []any{
			jsonNumber(s.PCTime),
			jsonNumber(s.Reading),
			jsonNumber(s.InstTime),
			jsonNumber(s.Status),
		})
	}

	if err := json.NewEncoder(entry).Encode(payload); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// jsonNumber keeps NaN representable: JSON has no NaN literal, so absent
// fields are encoded as the string "NaN", mirroring the CSV output.
func jsonNumber(v float64) any {
	if math.IsNaN(v) {
		return "NaN"
	}
	return v
}
