// Package render writes analytics results as tables, CSV, Markdown or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"order-analytics/pkg/config"
	"order-analytics/pkg/models"
)

var printer = message.NewPrinter(language.English)

// Renderer writes results to w in one output format.
type Renderer struct {
	w      io.Writer
	format string
}

// New returns a Renderer. The auto format becomes table on a terminal and markdown
// everywhere else.
func New(w io.Writer, format string) *Renderer {
	if format == config.OutputAuto || format == "" {
		format = config.OutputMarkdown
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = config.OutputTable
		}
	}
	return &Renderer{w: w, format: format}
}

// Format returns the resolved output format.
func (r *Renderer) Format() string {
	return r.format
}

// Revenue formats an amount as whole dollars with thousands separators, e.g. "$13,591,644".
// Halves round to even, so $2.50 prints as $2 and $3.50 as $4.
func Revenue(d decimal.Decimal) string {
	return printer.Sprintf("$%d", d.RoundBank(0).IntPart())
}

func (r *Renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) writeTable(title string, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)

	switch r.format {
	case config.OutputCSV:
		t.RenderCSV()
	case config.OutputMarkdown:
		if title != "" {
			_, _ = fmt.Fprintf(r.w, "### %s\n\n", title)
		}
		t.RenderMarkdown()
		_, _ = fmt.Fprintln(r.w)
	default:
		if title != "" {
			t.SetTitle(title)
		}
		t.Render()
	}
}

// KPIs writes the headline figures.
func (r *Renderer) KPIs(k models.KPISummary) error {
	if r.format == config.OutputJSON {
		return r.writeJSON(k)
	}
	r.writeTable("Summary", table.Row{"Orders", "Customers", "Revenue"}, []table.Row{
		{printer.Sprintf("%d", k.DistinctOrderCount), printer.Sprintf("%d", k.DistinctCustomerCount), Revenue(k.TotalRevenue)},
	})
	return nil
}

// Categories writes the category ranking, largest first.
func (r *Renderer) Categories(c []models.CategoryCount) error {
	if r.format == config.OutputJSON {
		return r.writeJSON(c)
	}
	rows := make([]table.Row, 0, len(c))
	for i, cc := range c {
		rows = append(rows, table.Row{i + 1, cc.Category, cc.Orders})
	}
	r.writeTable("Top product categories", table.Row{"#", "Category", "Orders"}, rows)
	return nil
}

// Monthly writes the monthly order series.
func (r *Renderer) Monthly(points []models.MonthlyPoint) error {
	if r.format == config.OutputJSON {
		return r.writeJSON(points)
	}
	rows := make([]table.Row, 0, len(points))
	for _, p := range points {
		rows = append(rows, table.Row{p.Label(), p.Orders})
	}
	r.writeTable("Monthly orders", table.Row{"Period", "Orders"}, rows)
	return nil
}

// Segments writes the RFM segment frequency table.
func (r *Renderer) Segments(s []models.SegmentCount) error {
	if r.format == config.OutputJSON {
		return r.writeJSON(s)
	}
	rows := make([]table.Row, 0, len(s))
	for _, sc := range s {
		rows = append(rows, table.Row{sc.Segment, sc.Customers})
	}
	r.writeTable("RFM segments", table.Row{"Segment", "Customers"}, rows)
	return nil
}

// Records writes one line per customer with its RFM values and scores.
func (r *Renderer) Records(recs []models.RFMRecord) error {
	if r.format == config.OutputJSON {
		return r.writeJSON(recs)
	}
	rows := make([]table.Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, table.Row{
			rec.CustomerUniqueID, rec.Recency, rec.Frequency, rec.Monetary.StringFixed(2),
			rec.RScore, rec.FScore, rec.MScore, rec.Segment,
		})
	}
	r.writeTable("RFM customers", table.Row{"Customer", "Recency", "Frequency", "Monetary", "R", "F", "M", "Segment"}, rows)
	return nil
}

// Years writes the years present in the data.
func (r *Renderer) Years(years []int) error {
	if r.format == config.OutputJSON {
		return r.writeJSON(years)
	}
	rows := make([]table.Row, 0, len(years))
	for _, y := range years {
		rows = append(rows, table.Row{strconv.Itoa(y)})
	}
	r.writeTable("Years", table.Row{"Year"}, rows)
	return nil
}

// Report writes every section of rep. An RFM section that could not be computed is
// reported as a message instead of a table.
func (r *Renderer) Report(rep *models.Report) error {
	if r.format == config.OutputJSON {
		return r.writeJSON(rep)
	}
	if err := r.KPIs(rep.KPIs); err != nil {
		return err
	}
	if err := r.Categories(rep.Categories); err != nil {
		return err
	}
	if err := r.Monthly(rep.Monthly); err != nil {
		return err
	}
	return r.RFM(rep.RFM)
}

// RFM writes the segment table of section, followed by its customer records when present.
func (r *Renderer) RFM(section models.RFMSection) error {
	if r.format == config.OutputJSON {
		return r.writeJSON(section)
	}
	if section.Error != "" {
		_, err := fmt.Fprintf(r.w, "RFM segmentation unavailable: %s\n", section.Error)
		return err
	}
	if err := r.Segments(section.Segments); err != nil {
		return err
	}
	if len(section.Records) > 0 {
		return r.Records(section.Records)
	}
	return nil
}
