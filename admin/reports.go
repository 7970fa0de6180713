package admin

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"courierflow/parcel"
)

// Report is the admin dashboard's summary, reduced client-side over the
// currently loaded registry. It is not a backend aggregation: it reflects
// exactly what the admin view has fetched.
type Report struct {
	TotalParcels int
	Delivered    int
	Pending      int
	Other        int
	TotalCharges float64
}

// Report reduces the current registry snapshot into the summary counts and
// the summed delivery charges.
func (s *Service) Report() Report {
	var r Report
	for _, p := range s.registry.Snapshot() {
		r.TotalParcels++
		switch p.Status {
		case parcel.StatusDelivered:
			r.Delivered++
		case parcel.StatusPending:
			r.Pending++
		default:
			r.Other++
		}
		r.TotalCharges += p.DeliveryCharge
	}
	return r
}

// ExportFormat selects the backend report rendering.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// Filename is the download name for the exported report.
func (f ExportFormat) Filename() string {
	return "parcel-report." + string(f)
}

// Export streams the backend-rendered report blob to w.
func (s *Service) Export(ctx context.Context, format ExportFormat, w io.Writer) error {
	blob, err := s.api.ExportReport(ctx, string(format))
	if err != nil {
		return fmt.Errorf("admin: export %s: %w", format, err)
	}
	if _, err := w.Write(blob); err != nil {
		return fmt.Errorf("admin: write %s export: %w", format, err)
	}
	return nil
}

// SaveExport downloads the report into dir under its conventional filename
// and returns the written path.
func (s *Service) SaveExport(ctx context.Context, format ExportFormat, dir string) (string, error) {
	path := filepath.Join(dir, format.Filename())
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("admin: create export file: %w", err)
	}
	defer file.Close()

	if err := s.Export(ctx, format, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
