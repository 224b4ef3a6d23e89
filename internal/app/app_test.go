package app

import (
	"context"
	"net"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tcpping/tcpping"
	"github.com/tcpping/tcpping/internal/testdata"
)

func listen(t *testing.T, handle func(net.Conn)) netip.AddrPort {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handle(conn)
			}()
		}
	}()

	return listener.Addr().(*net.TCPAddr).AddrPort()
}

func testConfig(target netip.AddrPort) ProbeConfig {
	return ProbeConfig{
		Hostname:        target.Addr().String(),
		Port:            target.Port(),
		Timeout:         time.Second,
		Interval:        time.Millisecond,
		ProbeCountLimit: 3,
		PrinterConfig: tcpping.PrinterConfig{
			NoColor: true,
		},
	}
}

func TestRun_ExactCount(t *testing.T) {
	target := listen(t, func(net.Conn) {})

	var code int
	output := testdata.CaptureOutput(t, func() {
		code = run(t.Context(), testConfig(target), zap.NewNop())
	})

	assert.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 4, "announcement plus one line per attempt")
	assert.Equal(t, "Parsed address "+target.String(), lines[0])
	for _, line := range lines[1:] {
		assert.True(t, strings.HasPrefix(line, "Connected to "+target.String()+" in "), line)
	}
}

func TestRun_RefusedKeepsProbing(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	target := listener.Addr().(*net.TCPAddr).AddrPort()
	listener.Close()

	var code int
	output := testdata.CaptureOutput(t, func() {
		code = run(t.Context(), testConfig(target), zap.NewNop())
	})

	assert.Equal(t, 0, code)
	assert.Equal(t, 3, strings.Count(output, "Connect to "+target.String()+" failed: connection refused"))
}

func TestRun_Payload(t *testing.T) {
	target := listen(t, func(conn net.Conn) {
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		conn.Write(buf[:n])
	})

	cfg := testConfig(target)
	cfg.ProbeCountLimit = 2
	cfg.Payload = []byte("ping")

	var code int
	output := testdata.CaptureOutput(t, func() {
		code = run(t.Context(), cfg, zap.NewNop())
	})

	assert.Equal(t, 0, code)
	assert.Equal(t, 2, strings.Count(output, "Read 4 bytes from "+target.String()+": ping"))
}

func TestRun_BindFailureExitsWithError(t *testing.T) {
	target := listen(t, func(net.Conn) {})

	cfg := testConfig(target)
	cfg.InterfaceName = "tcpping-nope0"

	var code int
	output := testdata.CaptureOutput(t, func() {
		code = run(t.Context(), cfg, zap.NewNop())
	})

	assert.Equal(t, 1, code)
	assert.Contains(t, output, "Bind socket failed: ", "startup bind failures go to stdout like per-attempt ones")
	assert.NotContains(t, output, "Connected to", "no attempt runs after a bind failure")
}

func TestRun_InterruptExitsCleanly(t *testing.T) {
	target := listen(t, func(net.Conn) {})

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	cfg := testConfig(target)
	cfg.ProbeCountLimit = 0
	cfg.Interval = 10 * time.Millisecond

	var code int
	output := testdata.CaptureOutput(t, func() {
		code = run(ctx, cfg, zap.NewNop())
	})

	assert.Equal(t, 0, code)
	assert.Contains(t, output, "Connected to")
}

func TestRun_ResolutionFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("uses the system resolver")
	}

	cfg := testConfig(netip.MustParseAddrPort("127.0.0.1:80"))
	cfg.Hostname = "this-hostname-definitely-does-not-exist-12345.invalid"

	assert.Equal(t, 1, run(t.Context(), cfg, zap.NewNop()))
}

func TestRun_InvalidPrinterConfig(t *testing.T) {
	cfg := testConfig(netip.MustParseAddrPort("127.0.0.1:80"))
	cfg.PrinterConfig.PrettyJSON = true

	assert.Equal(t, 1, run(t.Context(), cfg, zap.NewNop()))
}

func TestBuildProber_Hostname(t *testing.T) {
	cfg := testConfig(netip.MustParseAddrPort("127.0.0.1:80"))
	pinger, err := buildPinger(netip.MustParseAddrPort("127.0.0.1:80"), cfg)
	require.NoError(t, err)

	prober := buildProber(pinger, nil, cfg, zap.NewNop())
	assert.Empty(t, prober.Hostname, "IP literal targets carry no hostname")

	cfg.Hostname = "localhost"
	prober = buildProber(pinger, nil, cfg, zap.NewNop())
	assert.Equal(t, "localhost", prober.Hostname)
}
