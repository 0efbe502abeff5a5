package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/models"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
	"github.com/delegationapp/delegate/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type announcementSource interface {
	Merged() []models.Announcement
}

// ExportService renders a summary of the user's announcements to CSV or PDF.
type ExportService struct {
	source announcementSource
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs the service.
func NewExportService(source announcementSource, dir string, logger *zap.Logger) *ExportService {
	if dir == "" {
		dir = "./.delegate/exports"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		source: source,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

var exportHeaders = []string{"ID", "Title", "Category", "Status", "Bucket", "Severity", "Created"}

// Export renders the current merged list in the requested format and writes
// it under the export directory, returning the written path.
func (s *ExportService) Export(format string) (string, error) {
	dataset := export.Dataset{Headers: exportHeaders}
	for _, item := range s.source.Merged() {
		moderation := models.ModerationFor(item)
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":       item.ID,
			"Title":    item.Title,
			"Category": string(item.Category),
			"Status":   string(item.Status()),
			"Bucket":   string(item.Bucket()),
			"Severity": moderation.ItemSeverity().String(),
			"Created":  item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	var (
		payload []byte
		err     error
	)
	switch strings.ToLower(format) {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "My announcements")
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare export directory")
	}
	name := fmt.Sprintf("my-ads-%s.%s", s.now().UTC().Format("20060102-150405"), strings.ToLower(format))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write export")
	}
	return path, nil
}
