package prices

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	tbl := NewTable([]string{"BTC", "ETH"})
	tbl.Append(
		Row{Date: day(t, "2024-01-01"), Close: map[string]float64{"BTC": 42280.234375, "ETH": 2352.5}},
		Row{Date: day(t, "2024-01-02"), Close: map[string]float64{"BTC": 45000, "ETH": 2400.125}},
	)
	return tbl
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, sampleTable(t)))
	assert.Equal(t, "Date,BTC,ETH\n2024-01-01,42280.234375,2352.5\n2024-01-02,45000,2400.125\n", buf.String())
}

func TestDecodeCSV_RoundTrip(t *testing.T) {
	want := sampleTable(t)
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, want))

	got, err := DecodeCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeCSV_PandasTimestamps(t *testing.T) {
	in := "Date,BTC,ETH\n" +
		"2024-01-02 00:00:00+00:00,45000.0,2400.0\n" +
		"2024-01-01 00:00:00,42000.0,2300.0\n"
	got, err := DecodeCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, day(t, "2024-01-01"), got.FirstDate())
	assert.Equal(t, 2400.0, got.Rows[1].Close["ETH"])
}

func TestDecodeCSV_DropsIncompleteRows(t *testing.T) {
	in := "Date,btc,eth\n" +
		"2024-01-01,1,\n" +
		"2024-01-02,2,x\n" +
		"2024-01-03,3\n" +
		"2024-01-04,4,40\n"
	got, err := DecodeCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, got.Symbols)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, day(t, "2024-01-04"), got.FirstDate())
}

func TestDecodeCSV_Errors(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoCache)

	_, err = DecodeCSV(strings.NewReader("Time,BTC\n"))
	assert.Error(t, err)

	_, err = DecodeCSV(strings.NewReader("Date,BTC\nyesterday,1\n"))
	assert.Error(t, err)
}

func TestCSVCache(t *testing.T) {
	dir := t.TempDir()
	c := NewCSVCache(filepath.Join(dir, "nested", "prices.csv"))

	_, err := c.Read(context.Background())
	assert.ErrorIs(t, err, ErrNoCache)

	want := sampleTable(t)
	require.NoError(t, c.Write(context.Background(), want))
	got, err := c.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(c.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, "prices.csv", entries[0].Name())
}
