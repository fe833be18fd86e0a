// Package payrollexport renders the locked lines of a finalised batch for payroll.
// Column names are the persisted field names so downstream payroll imports can
// map them without translation.
package payrollexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tipsettle/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the header row (12 columns).
var columns = []string{
	"batch_id",
	"line_id",
	"employee_id",
	"payment_id",
	"gross_amount",
	"allocation_method",
	"pool_share_percentage",
	"weight_factor",
	"hours_worked",
	"audit_hash",
	"period_start",
	"period_end",
}

// Columns returns a copy of the header row.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Artifact is a rendered export.
type Artifact struct {
	Body        []byte
	ContentType string
	Filename    string
	LineCount   int
	TotalAmount int64
}

// Render renders the batch lines in the requested format.
func Render(format domain.ExportFormat, batch *domain.AllocationBatch, lines []domain.AllocationLine) (*Artifact, error) {
	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case domain.ExportFormatCSV:
		body, err = renderCSV(batch, lines)
		contentType = "text/csv"
	case domain.ExportFormatXLSX:
		body, err = renderXLSX(batch, lines)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return nil, fmt.Errorf("payrollexport: unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("payrollexport: rendering %s: %w", format, err)
	}

	var total int64
	for i := range lines {
		total += lines[i].GrossAmount
	}
	return &Artifact{
		Body:        body,
		ContentType: contentType,
		Filename:    BuildFilename(batch, format),
		LineCount:   len(lines),
		TotalAmount: total,
	}, nil
}

// Writer wraps csv.Writer for exporting allocation lines as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteLines converts lines to CSV rows and writes them.
func (w *Writer) WriteLines(batch *domain.AllocationBatch, lines []domain.AllocationLine) error {
	for i := range lines {
		if err := w.csv.Write(lineToRow(batch, &lines[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func renderCSV(batch *domain.AllocationBatch, lines []domain.AllocationLine) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(BOM)
	w := NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		return nil, err
	}
	if err := w.WriteLines(batch, lines); err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func lineToRow(batch *domain.AllocationBatch, l *domain.AllocationLine) []string {
	row := make([]string, len(columns))
	row[0] = batch.ID.String()
	row[1] = l.ID.String()
	row[2] = l.EmployeeID.String()
	if l.PaymentID != nil {
		row[3] = l.PaymentID.String()
	}
	row[4] = strconv.FormatInt(l.GrossAmount, 10)
	row[5] = string(l.AllocationMethod)
	row[6] = formatDecimal(l.PoolSharePercentage)
	row[7] = formatDecimal(l.WeightFactor)
	row[8] = formatDecimal(l.HoursWorked)
	if l.AuditHash != nil {
		row[9] = *l.AuditHash
	}
	row[10] = batch.PeriodStart.UTC().Format(time.RFC3339)
	row[11] = batch.PeriodEnd.UTC().Format(time.RFC3339)
	return row
}

func formatDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename replaces non-alphanumeric chars (except - _) with _, collapses
// consecutive underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns the artifact filename.
// Format: tips_{period_start}_{period_end}_{batch_id}.{ext}
func BuildFilename(batch *domain.AllocationBatch, format domain.ExportFormat) string {
	name := fmt.Sprintf("tips_%s_%s_%s",
		batch.PeriodStart.UTC().Format("2006-01-02"),
		batch.PeriodEnd.UTC().Format("2006-01-02"),
		batch.ID.String())
	return SanitizeFilename(name) + "." + string(format)
}
