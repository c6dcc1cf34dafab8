package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/medlink-api/internal/models"
	appErrors "github.com/noah-isme/medlink-api/pkg/errors"
	"github.com/noah-isme/medlink-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled bool
	MaxRows int
}

// ExportResult is a rendered export ready to stream to the client.
type ExportResult struct {
	ContentType string
	Filename    string
	Payload     []byte
}

// ExportService renders a doctor's appointment book as CSV or PDF.
type ExportService struct {
	appointments bookingAppointmentRepository
	csv          csvRenderer
	pdf          pdfRenderer
	logger       *zap.Logger
	cfg          ExportConfig
}

// NewExportService instantiates ExportService.
func NewExportService(appointments bookingAppointmentRepository, csv csvRenderer, pdf pdfRenderer, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 5000
	}
	return &ExportService{appointments: appointments, csv: csv, pdf: pdf, logger: logger, cfg: cfg}
}

// Appointments renders the doctor's appointments in the requested format,
// either "csv" or "pdf".
func (s *ExportService) Appointments(ctx context.Context, doctorID, format string, filter models.AppointmentFilter) (*ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	filter.DoctorID = doctorID
	appointments, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments for export: %w", err)
	}
	if len(appointments) > s.cfg.MaxRows {
		appointments = appointments[:s.cfg.MaxRows]
		s.logger.Warn("export truncated", zap.String("doctor_id", doctorID), zap.Int("max_rows", s.cfg.MaxRows))
	}

	dataset := appointmentsDataset(appointments)
	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, fmt.Errorf("render csv: %w", err)
		}
		return &ExportResult{ContentType: "text/csv", Filename: "appointments.csv", Payload: payload}, nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Appointments")
		if err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		return &ExportResult{ContentType: "application/pdf", Filename: "appointments.pdf", Payload: payload}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func appointmentsDataset(appointments []models.Appointment) export.Dataset {
	rows := make([][]string, 0, len(appointments))
	for _, a := range appointments {
		rows = append(rows, []string{
			a.Date.String(),
			a.Time.String(),
			a.PatientName,
			string(a.Type),
			string(a.Status),
			strconv.FormatInt(a.Fee, 10),
		})
	}
	return export.Dataset{
		Headers: []string{"Date", "Time", "Patient", "Type", "Status", "Fee"},
		Rows:    rows,
	}
}
