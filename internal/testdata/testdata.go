// Package testdata provides shared test helpers and fixtures.
package testdata

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/netip"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/printers"
)

// Common test fixture values
const (
	TestHostname = "example.com"
	TestPort     = uint16(443)
)

var (
	TestTarget     = netip.MustParseAddrPort("192.168.1.1:443")
	TestTimestamp  = time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)
	TestSourceAddr = "10.0.0.1:12345"
)

// MockAddr implements net.Addr for testing.
type MockAddr struct {
	Addr string
}

func (m MockAddr) Network() string { return "tcp" }
func (m MockAddr) String() string  { return m.Addr }

var _ net.Addr = (*MockAddr)(nil)

// ToPtr returns a pointer to the provided value.
func ToPtr[T any](v T) *T {
	return &v
}

// Connected returns a successful attempt against TestTarget.
func Connected(seq uint, rtt time.Duration) *attempt.Attempt {
	return &attempt.Attempt{
		Seq:       seq,
		Hostname:  TestHostname,
		Target:    TestTarget,
		LocalAddr: MockAddr{Addr: TestSourceAddr},
		StartTime: TestTimestamp,
		RTT:       rtt,
		Outcome:   attempt.Connected,
	}
}

// Failed returns an attempt against TestTarget that ended with outcome and err.
func Failed(seq uint, outcome attempt.Outcome, err error) *attempt.Attempt {
	return &attempt.Attempt{
		Seq:       seq,
		Hostname:  TestHostname,
		Target:    TestTarget,
		StartTime: TestTimestamp,
		RTT:       time.Millisecond,
		Outcome:   outcome,
		Err:       err,
	}
}

// CaptureOutput captures stdout during function execution and returns it as a string.
func CaptureOutput(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	w.Close()
	output := <-done
	os.Stdout = oldStdout

	return output
}

// CaptureJSONOutput captures and parses JSON output from stdout.
func CaptureJSONOutput(t *testing.T, fn func()) printers.JSONData {
	t.Helper()

	events := CaptureJSONEvents(t, fn)
	if len(events) != 1 {
		t.Fatalf("expected exactly one JSON event, got %d", len(events))
	}

	return events[0]
}

// CaptureJSONEvents captures stdout and parses every JSON event written to it.
func CaptureJSONEvents(t *testing.T, fn func()) []printers.JSONData {
	t.Helper()

	output := CaptureOutput(t, fn)

	var events []printers.JSONData
	dec := json.NewDecoder(strings.NewReader(output))
	for dec.More() {
		var data printers.JSONData
		if err := dec.Decode(&data); err != nil {
			t.Fatalf("parse JSON: %v\nOutput: %s", err, output)
		}
		events = append(events, data)
	}

	return events
}
