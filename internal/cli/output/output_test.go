package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"", FormatTable, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{" table ", FormatTable, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintTable(t *testing.T) {
	data := NewTableData("ID", "FILENAME", "SIZE")
	data.AddRow("68af01", "report.pdf", "1.50MiB")
	data.AddRow("68af02", "notes.txt", "312B")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, data))

	out := buf.String()
	assert.Contains(t, out, "FILENAME")
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "312B")
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, KeyValueTable(&buf, [][2]string{
		{"ID", "68af01"},
		{"Length", "42"},
	}))

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "68af01")
}

func TestPrinterFormats(t *testing.T) {
	payload := map[string]string{"filename": "a.txt"}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewPrinter(&buf, FormatJSON, false)
		require.NoError(t, p.Print(payload))
		assert.Contains(t, buf.String(), `"filename": "a.txt"`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewPrinter(&buf, FormatYAML, false)
		require.NoError(t, p.Print(payload))
		assert.Contains(t, buf.String(), "filename: a.txt")
	})

	t.Run("table falls back to json without renderer", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewPrinter(&buf, FormatTable, false)
		require.NoError(t, p.Print(payload))
		assert.Contains(t, buf.String(), `"filename": "a.txt"`)
	})
}

func TestPrinterMessages(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, false)

	p.Success("done")
	p.Error("failed")
	p.Warning("careful")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"done", "failed", "careful"}, lines)
}

func TestPrinterColorCodes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, true)

	p.Success("done")
	assert.Contains(t, buf.String(), "\033[32m")
}
