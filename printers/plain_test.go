package printers_test

import (
	"bytes"
	"errors"
	"net/netip"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/internal/testdata"
	"github.com/tcpping/tcpping/printers"
)

func newPlain(opts ...printers.PlainPrinterOption) (*printers.PlainPrinter, *bytes.Buffer) {
	var buf bytes.Buffer
	opts = append(opts, printers.WithWriter(&buf))
	return printers.NewPlainPrinter(opts...), &buf
}

func TestPlainPrinter_PrintStart(t *testing.T) {
	p, buf := newPlain()
	p.PrintStart(testdata.TestHostname, testdata.TestTarget)

	assert.Equal(t, "Parsed address 192.168.1.1:443\n", buf.String())
}

func TestPlainPrinter_PrintStart_IPv6(t *testing.T) {
	p, buf := newPlain()
	p.PrintStart("", netip.MustParseAddrPort("[2001:db8::1]:80"))

	assert.Equal(t, "Parsed address [2001:db8::1]:80\n", buf.String())
}

func TestPlainPrinter_PrintProbeSuccess(t *testing.T) {
	tests := []struct {
		name string
		opts []printers.PlainPrinterOption
		want string
	}{
		{
			name: "default",
			want: "Connected to 192.168.1.1:443 in 12 ms\n",
		},
		{
			name: "with timestamp",
			opts: []printers.PlainPrinterOption{printers.WithTimestamp[*printers.PlainPrinter]()},
			want: "[2024-01-15 10:30:45] Connected to 192.168.1.1:443 in 12 ms\n",
		},
		{
			name: "with source address",
			opts: []printers.PlainPrinterOption{printers.WithSourceAddress[*printers.PlainPrinter]()},
			want: "Connected to 192.168.1.1:443 using 10.0.0.1:12345 in 12 ms\n",
		},
		{
			name: "with timestamp and source address",
			opts: []printers.PlainPrinterOption{
				printers.WithTimestamp[*printers.PlainPrinter](),
				printers.WithSourceAddress[*printers.PlainPrinter](),
			},
			want: "[2024-01-15 10:30:45] Connected to 192.168.1.1:443 using 10.0.0.1:12345 in 12 ms\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, buf := newPlain(tt.opts...)
			p.PrintProbeSuccess(testdata.Connected(1, 12345*time.Microsecond))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPlainPrinter_PrintProbeFailure(t *testing.T) {
	tests := []struct {
		name    string
		attempt *attempt.Attempt
		want    string
	}{
		{
			name:    "connection refused",
			attempt: testdata.Failed(1, attempt.ConnectFailed, syscall.ECONNREFUSED),
			want:    "Connect to 192.168.1.1:443 failed: connection refused\n",
		},
		{
			name:    "timeout",
			attempt: testdata.Failed(2, attempt.ConnectFailed, errors.New("i/o timeout")),
			want:    "Connect to 192.168.1.1:443 failed: i/o timeout\n",
		},
		{
			name:    "socket creation",
			attempt: testdata.Failed(3, attempt.SocketFailed, syscall.EMFILE),
			want:    "Create socket for 192.168.1.1:443 failed: too many open files\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, buf := newPlain()
			p.PrintProbeFailure(tt.attempt)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPlainPrinter_PrintPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload *attempt.PayloadExchange
		want    string
	}{
		{
			name:    "echo",
			payload: &attempt.PayloadExchange{Sent: 5, Received: []byte("hello")},
			want:    "Read 5 bytes from 192.168.1.1:443: hello\n",
		},
		{
			name:    "empty reply",
			payload: &attempt.PayloadExchange{Sent: 5},
			want:    "Read 0 bytes from 192.168.1.1:443: \n",
		},
		{
			name:    "invalid utf-8",
			payload: &attempt.PayloadExchange{Sent: 1, Received: []byte{0xff, 'o', 'k'}},
			want:    "Read 3 bytes from 192.168.1.1:443: \uFFFDok\n",
		},
		{
			name:    "failed exchange",
			payload: &attempt.PayloadExchange{Sent: 5, Err: errors.New("i/o timeout")},
			want:    "Payload exchange with 192.168.1.1:443 failed: i/o timeout\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, buf := newPlain()
			a := testdata.Connected(1, time.Millisecond)
			a.Payload = tt.payload

			p.PrintPayload(a)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPlainPrinter_PrintPayload_NoExchange(t *testing.T) {
	p, buf := newPlain()
	p.PrintPayload(testdata.Connected(1, time.Millisecond))
	assert.Empty(t, buf.String())
}

func TestPlainPrinter_PrintError(t *testing.T) {
	p, buf := newPlain()
	p.PrintError("Bind socket failed: %v", errors.New("setsockopt eth9: no such device"))

	assert.Equal(t, "Bind socket failed: setsockopt eth9: no such device\n", buf.String())
}

func TestPlainPrinter_OneLinePerAttempt(t *testing.T) {
	p, buf := newPlain()

	for i := range uint(5) {
		if i%2 == 0 {
			p.PrintProbeSuccess(testdata.Connected(i+1, time.Millisecond))
		} else {
			p.PrintProbeFailure(testdata.Failed(i+1, attempt.ConnectFailed, syscall.ECONNREFUSED))
		}
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 5)
}

func TestPlainPrinter_DefaultsToStdout(t *testing.T) {
	output := testdata.CaptureOutput(t, func() {
		p := printers.NewPlainPrinter()
		p.PrintProbeSuccess(testdata.Connected(1, 3*time.Millisecond))
		assert.NoError(t, p.Done())
	})

	assert.Equal(t, "Connected to 192.168.1.1:443 in 3 ms\n", output)
}
