package printers

import (
	"net/netip"

	"github.com/gookit/color"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/option"
)

// Color functions used when printing information
var (
	ColorCyan       = color.Cyan.Printf
	ColorLightCyan  = color.LightCyan.Printf
	ColorLightGreen = color.LightGreen.Printf
	ColorYellow     = color.Yellow.Printf
	ColorRed        = color.Red.Printf
)

// ColorPrinter provides functionality for printing messages with color support.
// It optionally includes a timestamp in the output if ShowTimestamp is enabled.
type ColorPrinter struct {
	opt options
}

type ColorPrinterOption = option.Option[ColorPrinter]

func (p *ColorPrinter) options() *options {
	return &p.opt
}

// NewColorPrinter creates a new ColorPrinter instance.
func NewColorPrinter(opts ...ColorPrinterOption) *ColorPrinter {
	return option.Apply(&ColorPrinter{}, opts...)
}

// PrintStart prints the resolved address in light cyan.
func (p *ColorPrinter) PrintStart(_ string, target netip.AddrPort) {
	ColorLightCyan("%s\n", startMessage(target))
}

// PrintProbeSuccess prints a successful probe in light green.
func (p *ColorPrinter) PrintProbeSuccess(a *attempt.Attempt) {
	ColorLightGreen("%s\n", withTimestamp(a, &p.opt, successMessage(a, &p.opt)))
}

// PrintProbeFailure prints a failed probe in red.
func (p *ColorPrinter) PrintProbeFailure(a *attempt.Attempt) {
	ColorRed("%s\n", withTimestamp(a, &p.opt, failureMessage(a)))
}

// PrintPayload prints the payload reply in cyan and a failed exchange in yellow.
func (p *ColorPrinter) PrintPayload(a *attempt.Attempt) {
	msg := payloadMessage(a)
	if msg == "" {
		return
	}

	msg = withTimestamp(a, &p.opt, msg)
	if a.Payload.Failed() {
		ColorYellow("%s\n", msg)
		return
	}
	ColorCyan("%s\n", msg)
}

// PrintError prints an error message in red.
//
// Parameters:
//   - format: A format string for the error message.
//   - args: Arguments to format the message.
func (p *ColorPrinter) PrintError(format string, args ...any) {
	ColorRed(format+"\n", args...)
}

// Done is a no-op, as the color printer holds no resources.
func (p *ColorPrinter) Done() error {
	return nil
}
