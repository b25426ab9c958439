// Package report assembles every analytics section for one year selection and exports it.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"order-analytics/pkg/calculator"
	"order-analytics/pkg/models"
)

// Options sets the knobs of Build.
type Options struct {
	TopCategories  int
	TopSegments    int
	Policy         calculator.BinPolicy
	IncludeRecords bool // keep per-customer RFM records in the report
}

// Build filters ds to years (nil: every year of ds) and computes all sections.
//
// An RFM segmentation that is not meaningful for the selection (empty or too few distinct
// values) does not fail the report; the reason is stored in RFM.Error. Invalid parameters
// fail the whole build.
func Build(ds *calculator.Dataset, years []int, opts Options) (*models.Report, error) {
	if years == nil {
		years = ds.Years()
	}
	view := ds.FilterYears(years)

	categories, err := calculator.RankCategories(view, opts.TopCategories)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}

	rep := &models.Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Years:       years,
		Rows:        view.Len(),
		KPIs:        calculator.ComputeKPIs(view),
		Categories:  categories,
		Monthly:     calculator.MonthlyOrderSeries(view),
	}

	records, segments, err := calculator.ComputeRFM(view, opts.TopSegments, calculator.WithBinPolicy(opts.Policy))
	switch {
	case errors.Is(err, calculator.ErrInvalidParameter):
		return nil, fmt.Errorf("rfm: %w", err)
	case err != nil:
		rep.RFM.Error = err.Error()
	default:
		rep.RFM.Customers = len(records)
		rep.RFM.Segments = segments
		if opts.IncludeRecords {
			rep.RFM.Records = records
		}
	}
	return rep, nil
}

// Filename returns the export name of rep inside dir: generation time plus the first
// block of the report id, so reports built within the same second get distinct files.
func Filename(dir string, rep *models.Report) string {
	id, _, _ := strings.Cut(rep.ID, "-")
	return filepath.Join(dir, fmt.Sprintf("report_%s_%s.json", rep.GeneratedAt.Format("20060102_150405"), id))
}

// ExportJSON writes rep as indented JSON under dir, creating dir when needed, and returns
// the written path.
func ExportJSON(dir string, rep *models.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := Filename(dir, rep)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, f.Close()
}
