package payrollexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tipsettle/internal/domain"
)

func fixture() (*domain.AllocationBatch, []domain.AllocationLine) {
	batch := &domain.AllocationBatch{
		ID:          uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 3, 7, 23, 59, 59, 0, time.UTC),
	}
	pay := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	pct := decimal.RequireFromString("33.3333")
	hash := "abc123"
	lines := []domain.AllocationLine{
		{
			ID:                  uuid.MustParse("33333333-3333-3333-3333-333333333333"),
			EmployeeID:          uuid.MustParse("44444444-4444-4444-4444-444444444444"),
			GrossAmount:         333,
			AllocationMethod:    domain.MethodPooled,
			PoolSharePercentage: &pct,
			AuditHash:           &hash,
		},
		{
			ID:               uuid.MustParse("55555555-5555-5555-5555-555555555555"),
			EmployeeID:       uuid.MustParse("66666666-6666-6666-6666-666666666666"),
			PaymentID:        &pay,
			GrossAmount:      500,
			AllocationMethod: domain.MethodIndividual,
		},
	}
	return batch, lines
}

func TestColumns_PersistedFieldNames(t *testing.T) {
	cols := Columns()
	for _, name := range []string{"gross_amount", "allocation_method", "pool_share_percentage", "weight_factor", "hours_worked", "audit_hash"} {
		assert.Contains(t, cols, name)
	}
}

func TestRender_CSV(t *testing.T) {
	batch, lines := fixture()

	art, err := Render(domain.ExportFormatCSV, batch, lines)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", art.ContentType)
	assert.Equal(t, 2, art.LineCount)
	assert.Equal(t, int64(833), art.TotalAmount)
	require.True(t, bytes.HasPrefix(art.Body, BOM))

	rows, err := csv.NewReader(bytes.NewReader(art.Body[len(BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, columns, rows[0])

	assert.Equal(t, "333", rows[1][4])
	assert.Equal(t, "pooled", rows[1][5])
	assert.Equal(t, "33.3333", rows[1][6])
	assert.Equal(t, "", rows[1][3])
	assert.Equal(t, "abc123", rows[1][9])
	assert.Equal(t, "2025-03-01T00:00:00Z", rows[1][10])

	assert.Equal(t, "22222222-2222-2222-2222-222222222222", rows[2][3])
	assert.Equal(t, "", rows[2][6])
	assert.Equal(t, "", rows[2][9])
}

func TestRender_XLSX(t *testing.T) {
	batch, lines := fixture()

	art, err := Render(domain.ExportFormatXLSX, batch, lines)
	require.NoError(t, err)
	assert.Equal(t, "tips_2025-03-01_2025-03-07_11111111-1111-1111-1111-111111111111.xlsx", art.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(art.Body))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "gross_amount", rows[0][4])
	assert.Equal(t, "500", rows[2][4])
	assert.Equal(t, "individual", rows[2][5])
}

func TestRender_UnknownFormat(t *testing.T) {
	batch, lines := fixture()
	_, err := Render("pdf", batch, lines)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"tips 2025/03", "tips_2025_03"},
		{"__a!!b__", "a_b"},
		{"plain-name_1", "plain-name_1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}
