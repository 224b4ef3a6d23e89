package printers_test

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/internal/testdata"
	"github.com/tcpping/tcpping/printers"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestNewCSVPrinter_AddsExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results")

	p, err := printers.NewCSVPrinter(path)
	require.NoError(t, err)
	assert.Equal(t, path+".csv", p.ProbeFile.Name())
	require.NoError(t, p.Done())

	records := readCSV(t, path+".csv")
	require.Len(t, records, 1)
	assert.Equal(t, []string{
		"Seq", "Status", "Hostname", "IP", "Port",
		"Latency(ms)", "Error", "Bytes Sent", "Bytes Received", "Response",
	}, records[0])
}

func TestNewCSVPrinter_InvalidPath(t *testing.T) {
	_, err := printers.NewCSVPrinter(filepath.Join(t.TempDir(), "missing", "dir", "out.csv"))
	assert.Error(t, err)
}

func TestCSVPrinter_OneRecordPerAttempt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	p, err := printers.NewCSVPrinter(path,
		printers.WithTimestamp[*printers.CSVPrinter](),
		printers.WithSourceAddress[*printers.CSVPrinter](),
	)
	require.NoError(t, err)

	success := testdata.Connected(1, 12345*time.Microsecond)
	success.Payload = &attempt.PayloadExchange{Sent: 4, Received: []byte("pong")}

	payloadFailed := testdata.Connected(3, time.Millisecond)
	payloadFailed.Payload = &attempt.PayloadExchange{Sent: 4, Err: errors.New("i/o timeout")}

	output := testdata.CaptureOutput(t, func() {
		p.PrintStart(testdata.TestHostname, testdata.TestTarget)
		p.PrintProbeSuccess(success)
		p.PrintPayload(success)
		p.PrintProbeFailure(testdata.Failed(2, attempt.ConnectFailed, syscall.ECONNREFUSED))
		p.PrintProbeSuccess(payloadFailed)
		p.PrintPayload(payloadFailed)
	})
	require.NoError(t, p.Done())

	assert.Equal(t, "Parsed address 192.168.1.1:443 - saving the results to: "+path+"\n", output)

	records := readCSV(t, path)
	require.Len(t, records, 4, "header plus one record per attempt")

	assert.Equal(t, []string{
		"Timestamp", "Seq", "Status", "Hostname", "IP", "Port", "Source Address",
		"Latency(ms)", "Error", "Bytes Sent", "Bytes Received", "Response",
	}, records[0])

	assert.Equal(t, []string{
		"2024-01-15 10:30:45", "1", "connected", "example.com", "192.168.1.1", "443", "10.0.0.1:12345",
		"12.345", "", "4", "4", "pong",
	}, records[1])

	assert.Equal(t, []string{
		"2024-01-15 10:30:45", "2", "connect failed", "example.com", "192.168.1.1", "443", "",
		"", "connection refused", "", "", "",
	}, records[2])

	assert.Equal(t, "i/o timeout", records[3][8])
	assert.Equal(t, "4", records[3][9])
	assert.Empty(t, records[3][10])
}

func TestCSVPrinter_Done(t *testing.T) {
	p, err := printers.NewCSVPrinter(filepath.Join(t.TempDir(), "done.csv"))
	require.NoError(t, err)

	require.NoError(t, p.Done())
	assert.Error(t, p.Done(), "closing twice reports the already closed file")
}
