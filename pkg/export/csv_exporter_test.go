package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Line", "Name"},
		Rows: []map[string]string{
			{"Line": "Line 1", "Name": "Juice Apple"},
			{"Line": "Line 2", "Name": "Water Still"},
		},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Contains(t, string(out), "Line,Name\r\n")
	assert.Contains(t, string(out), "Line 1,Juice Apple\r\n")
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Line", "Kind", "Minutes"},
		Rows: []map[string]string{
			{"Line": "Line 1", "Kind": "PRODUCTION", "Minutes": "120"},
			{"Line": "Line 1", "Kind": "TRANSITION", "Minutes": "45"},
		},
	}

	out, err := NewPDFExporter().Render(data, "Line Schedule 2024-03-11")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
