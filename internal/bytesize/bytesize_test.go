package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected ByteSize
	}{
		{"0", 0},
		{"1024", 1024},
		{"262144", 256 * KiB},
		{"1B", 1},
		{"256Ki", 256 * KiB},
		{"256KiB", 256 * KiB},
		{"16Mi", 16 * MiB},
		{"1Gi", GiB},
		{"2Ti", 2 * TiB},
		{"100MB", 100 * MB},
		{"1K", KB},
		{"1.5Ki", 1536},
		{" 4 Mi ", 4 * MiB},
		{"16mib", 16 * MiB},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "Mi", "12XB", "1..5Ki", "-1Ki"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	require.NoError(t, b.UnmarshalText([]byte("256Ki")))
	assert.Equal(t, 256*KiB, b)

	assert.Error(t, b.UnmarshalText([]byte("bogus")))
}

func TestMarshalText(t *testing.T) {
	text, err := (16 * MiB).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "16.00MiB", string(text))
}

func TestString(t *testing.T) {
	assert.Equal(t, "512B", (512 * B).String())
	assert.Equal(t, "256.00KiB", (256 * KiB).String())
	assert.Equal(t, "16.00MiB", (16 * MiB).String())
	assert.Equal(t, "1.00GiB", GiB.String())
	assert.Equal(t, "1.50TiB", (TiB + 512*GiB).String())
}

func TestInt32Clamp(t *testing.T) {
	assert.Equal(t, int32(262144), (256 * KiB).Int32())
	assert.Equal(t, int32(1<<31-1), (4 * GiB).Int32())
}
