package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/prodlens/prodlens/internal/domain"
)

func sampleProducts() []*domain.Product {
	return []*domain.Product{
		{
			Name:        "Wireless Mouse A",
			Price:       "₹1,299",
			Rating:      8.5,
			Recommended: true,
			Verdict:     "Great pick",
			Pros:        []string{"durable", "light"},
			Cons:        []string{"loud clicks"},
			URL:         "https://www.amazon.in/dp/B001",
			ImageURL:    "https://img.example/a.jpg",
		},
		{
			Name:   "Wireless Mouse B",
			Price:  "N/A",
			Rating: 6,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, sampleProducts()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, columns, records[0])
	assert.Equal(t, "Wireless Mouse A", records[1][0])
	assert.Equal(t, "8.5", records[1][2])
	assert.Equal(t, "true", records[1][3])
	assert.Equal(t, "durable; light", records[1][5])
	assert.Equal(t, "6.0", records[2][2])
	assert.Equal(t, "false", records[2][3])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")

	require.NoError(t, WriteXLSX(path, sampleProducts()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Wireless Mouse A", rows[1][0])
	assert.Equal(t, "Great pick", rows[1][4])
}
