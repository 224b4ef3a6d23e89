package printers

import (
	"fmt"
	"io"
	"net/netip"
	"os"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/option"
)

// PlainPrinter is a printer that prints the results in a simple, plain text format.
type PlainPrinter struct {
	out io.Writer
	opt options
}

type PlainPrinterOption = option.Option[PlainPrinter]

func (p *PlainPrinter) options() *options {
	return &p.opt
}

// WithWriter sends plain output to w instead of stdout.
func WithWriter(w io.Writer) PlainPrinterOption {
	return func(p *PlainPrinter) {
		p.out = w
	}
}

// NewPlainPrinter creates a new PlainPrinter instance.
func NewPlainPrinter(opts ...PlainPrinterOption) *PlainPrinter {
	return option.Apply(&PlainPrinter{out: os.Stdout}, opts...)
}

// PrintStart prints the resolved address before the first probe.
func (p *PlainPrinter) PrintStart(_ string, target netip.AddrPort) {
	fmt.Fprintln(p.out, startMessage(target))
}

// PrintProbeSuccess prints the handshake time of a successful probe.
func (p *PlainPrinter) PrintProbeSuccess(a *attempt.Attempt) {
	fmt.Fprintln(p.out, withTimestamp(a, &p.opt, successMessage(a, &p.opt)))
}

// PrintProbeFailure prints why a probe could not connect.
func (p *PlainPrinter) PrintProbeFailure(a *attempt.Attempt) {
	fmt.Fprintln(p.out, withTimestamp(a, &p.opt, failureMessage(a)))
}

// PrintPayload prints the reply to the payload, or why the exchange failed.
func (p *PlainPrinter) PrintPayload(a *attempt.Attempt) {
	msg := payloadMessage(a)
	if msg == "" {
		return
	}
	fmt.Fprintln(p.out, withTimestamp(a, &p.opt, msg))
}

// PrintError prints error messages.
func (p *PlainPrinter) PrintError(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Done is a no-op, as the plain printer holds no resources.
func (p *PlainPrinter) Done() error {
	return nil
}
