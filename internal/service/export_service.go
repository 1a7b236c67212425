package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unirooms/timetable-api/internal/models"
	"github.com/unirooms/timetable-api/internal/timetable"
	"github.com/unirooms/timetable-api/pkg/export"
	"github.com/unirooms/timetable-api/pkg/storage"
)

type occupancyReader interface {
	RoomRecords(ctx context.Context, periodID string) ([]models.OccupancyRecord, error)
	Summary(ctx context.Context, periodID string, includeRooms bool) (*models.OccupancySummary, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService builds occupancy report datasets and persists rendered files.
type ExportService struct {
	occupancy occupancyReader
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(occupancy occupancyReader, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		occupancy: occupancy,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds the dataset according to the job definition and stores the
// rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	periodPart := sanitizeFilename(job.Params.PeriodID)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), periodPart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeOccupancy:
		return s.buildOccupancyDataset(ctx, job.Params)
	case models.ReportTypeOccupancySummary:
		return s.buildSummaryDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildOccupancyDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	records, err := s.occupancy.RoomRecords(ctx, params.PeriodID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	if params.RoomID != nil && *params.RoomID != "" {
		filtered := records[:0]
		for _, rec := range records {
			if rec.RoomID == *params.RoomID {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]string{
			"Room ID":         rec.RoomID,
			"Period ID":       rec.PeriodID,
			"Available Hours": fmt.Sprintf("%.1f", rec.TotalAvailableHours),
			"Occupied Hours":  fmt.Sprintf("%.1f", rec.TotalOccupiedHours),
			"Occupancy (%)":   fmt.Sprintf("%.1f", rec.Percentage),
			"Morning (%)":     fmt.Sprintf("%.1f", rec.Shifts.Morning),
			"Afternoon (%)":   fmt.Sprintf("%.1f", rec.Shifts.Afternoon),
			"Evening (%)":     fmt.Sprintf("%.1f", rec.Shifts.Evening),
			"Generated At":    rec.GeneratedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Room ID", "Period ID", "Available Hours", "Occupied Hours", "Occupancy (%)", "Morning (%)", "Afternoon (%)", "Evening (%)", "Generated At"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Room Occupancy %s", params.PeriodID)
	return dataset, title, nil
}

func (s *ExportService) buildSummaryDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	summary, _, err := s.occupancy.Summary(ctx, params.PeriodID, false)
	if err != nil {
		return export.Dataset{}, "", err
	}

	rows := []map[string]string{
		{"Metric": "Rooms", "Period ID": params.PeriodID, "Value": fmt.Sprintf("%d", summary.RoomCount)},
		{"Metric": "Average Occupancy (%)", "Period ID": params.PeriodID, "Value": fmt.Sprintf("%.1f", summary.AverageOccupancy)},
		{"Metric": fmt.Sprintf("Over-occupied (>%.0f%%)", timetable.OverOccupiedThreshold), "Period ID": params.PeriodID, "Value": fmt.Sprintf("%d", summary.OverOccupiedCount)},
		{"Metric": fmt.Sprintf("Under-utilized (<%.0f%%)", timetable.UnderUtilizedThreshold), "Period ID": params.PeriodID, "Value": fmt.Sprintf("%d", summary.UnderUtilizedCount)},
	}
	dataset := export.Dataset{
		Headers: []string{"Metric", "Period ID", "Value"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Occupancy Summary %s", params.PeriodID)
	return dataset, title, nil
}
