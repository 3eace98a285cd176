package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Description", "Amount"},
		Rows: []map[string]string{
			{"Description": "Bus rental", "Amount": "12000.00"},
			{"Description": "Lunch, day one", "Amount": "4500.00"},
		},
		Footer: map[string]string{"Description": "TOTAL", "Amount": "16500.00"},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Description", "Amount"}, records[0])
	assert.Equal(t, []string{"Lunch, day one", "4500.00"}, records[2])
	assert.Equal(t, []string{"TOTAL", "16500.00"}, records[3])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestCSVExporterFillsMissingCells(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Name", "Phone"},
		Rows:    []map[string]string{{"Name": "Karim"}},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Karim", ""}, records[1])
}
