package tcpping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/option"
	"github.com/tcpping/tcpping/printers"
)

var (
	ErrBindFailed = errors.New("bind socket failed")
)

// Prober orchestrates periodic connectivity testing with configurable timing and output.
// Every attempt is reported on its own. Nothing is aggregated across attempts.
type Prober struct {
	pinger          Pinger
	printer         Printer
	logger          *zap.Logger
	Interval        time.Duration
	ProbeCountLimit uint
	Hostname        string
}

type ProberOption = option.Option[Prober]

// WithInterval configures the interval between probe attempts.
func WithInterval(interval time.Duration) ProberOption {
	return func(p *Prober) {
		p.Interval = interval
	}
}

// WithPrinter configures the printer for probe output formatting.
func WithPrinter(printer Printer) ProberOption {
	return func(p *Prober) {
		p.printer = printer
	}
}

// WithProbeCount configures the maximum number of probes before stopping.
// If set to 0, probing continues indefinitely.
func WithProbeCount(count uint) ProberOption {
	return func(p *Prober) {
		p.ProbeCountLimit = count
	}
}

// WithHostname records the name the target was resolved from.
func WithHostname(hostname string) ProberOption {
	return func(p *Prober) {
		p.Hostname = hostname
	}
}

// WithLogger writes one diagnostic entry per attempt to logger.
func WithLogger(logger *zap.Logger) ProberOption {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProber creates a new prober with the given pinger and optional configuration.
func NewProber(p Pinger, opts ...ProberOption) *Prober {
	return option.Apply(&Prober{
		pinger:   p,
		printer:  printers.NewColorPrinter(),
		logger:   zap.NewNop(),
		Interval: DefaultInterval,
	}, opts...)
}

const (
	DefaultInterval = 1 * time.Second
)

// Probe runs attempts until the probe count is reached or ctx is cancelled
// and returns the number of attempts that were reported.
// The first attempt starts immediately. A bind failure ends probing with
// ErrBindFailed. Every other failure is reported and probing goes on.
func (p *Prober) Probe(ctx context.Context) (uint, error) {
	p.printer.PrintStart(p.Hostname, p.pinger.Target())

	var probeCount uint

	for {
		a := p.pinger.Ping(ctx)
		if ctx.Err() != nil {
			// interrupted mid-attempt, nothing to report
			return probeCount, nil
		}

		probeCount++
		a.Seq = probeCount
		a.Hostname = p.Hostname
		p.log(&a)

		switch a.Outcome {
		case attempt.BindFailed:
			p.printer.PrintError("Bind socket failed: %v", a.Err)
			return probeCount, fmt.Errorf("%w: %w", ErrBindFailed, a.Err)
		case attempt.Connected:
			p.printer.PrintProbeSuccess(&a)
			if a.Payload != nil {
				p.printer.PrintPayload(&a)
			}
		default:
			p.printer.PrintProbeFailure(&a)
		}

		if p.ProbeCountLimit > 0 && probeCount >= p.ProbeCountLimit {
			return probeCount, nil
		}

		if !sleep(ctx, p.Interval) {
			return probeCount, nil
		}
	}
}

func (p *Prober) log(a *attempt.Attempt) {
	fields := []zap.Field{
		zap.Uint("seq", a.Seq),
		zap.String("target", a.TargetStr()),
		zap.Stringer("outcome", a.Outcome),
		zap.Duration("rtt", a.RTT),
	}
	if a.Hostname != "" {
		fields = append(fields, zap.String("hostname", a.Hostname))
	}
	if src := a.SourceAddr(); src != "" {
		fields = append(fields, zap.String("source", src))
	}
	if a.Payload != nil {
		fields = append(fields,
			zap.Int("payload_sent", a.Payload.Sent),
			zap.Int("payload_received", len(a.Payload.Received)),
		)
	}

	switch {
	case a.Err != nil:
		p.logger.Warn("probe failed", append(fields, zap.Error(a.Err))...)
	case a.Payload != nil && a.Payload.Failed():
		p.logger.Warn("payload exchange failed", append(fields, zap.Error(a.Payload.Err))...)
	default:
		p.logger.Info("probe", fields...)
	}
}

// sleep waits for d and reports false if ctx was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
