package tcpping

import (
	"fmt"
	"net/netip"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/printers"
)

var (
	_ Printer = (*printers.ColorPrinter)(nil)
	_ Printer = (*printers.JSONPrinter)(nil)
	_ Printer = (*printers.CSVPrinter)(nil)
	_ Printer = (*printers.DatabasePrinter)(nil)
	_ Printer = (*printers.PlainPrinter)(nil)
)

// Printer defines a set of methods that any printer implementation must provide.
// Printers are responsible for outputting information, but should not modify data or perform calculations.
type Printer interface {
	// PrintStart announces the resolved target once, before the first attempt.
	// hostname is empty when the target was given as an IP address.
	PrintStart(hostname string, target netip.AddrPort)

	// PrintProbeSuccess reports an attempt whose handshake completed.
	PrintProbeSuccess(a *attempt.Attempt)

	// PrintProbeFailure reports an attempt that could not create a socket
	// or could not connect.
	PrintProbeFailure(a *attempt.Attempt)

	// PrintPayload reports the payload exchange of a successful attempt.
	PrintPayload(a *attempt.Attempt)

	// PrintError should print an error message.
	// Printer should also apply \n to the given string, if needed.
	PrintError(format string, args ...any)

	// Done flushes and releases whatever the printer writes to.
	Done() error
}

// NewPrinter creates and returns an appropriate printer based on configuration
func NewPrinter(cfg PrinterConfig) (Printer, error) {
	if cfg.PrettyJSON && !cfg.OutputJSON {
		return nil, fmt.Errorf("--pretty has no effect without the -j flag")
	}

	switch {
	case cfg.OutputJSON:
		opts := []printers.JSONPrinterOption{}
		if cfg.PrettyJSON {
			opts = append(opts, printers.WithPrettyJSON())
		}
		if cfg.WithTimestamp {
			opts = append(opts, printers.WithTimestamp[*printers.JSONPrinter]())
		}
		if cfg.WithSourceAddress {
			opts = append(opts, printers.WithSourceAddress[*printers.JSONPrinter]())
		}
		return printers.NewJSONPrinter(opts...), nil

	case cfg.OutputDBPath != "":
		opts := []printers.DatabasePrinterOption{}
		if cfg.WithSourceAddress {
			opts = append(opts, printers.WithSourceAddress[*printers.DatabasePrinter]())
		}
		return printers.NewDatabasePrinter(cfg.Target, cfg.Port, cfg.OutputDBPath, opts...)

	case cfg.OutputCSVPath != "":
		opts := []printers.CSVPrinterOption{}
		if cfg.WithTimestamp {
			opts = append(opts, printers.WithTimestamp[*printers.CSVPrinter]())
		}
		if cfg.WithSourceAddress {
			opts = append(opts, printers.WithSourceAddress[*printers.CSVPrinter]())
		}
		return printers.NewCSVPrinter(cfg.OutputCSVPath, opts...)

	case cfg.NoColor:
		opts := []printers.PlainPrinterOption{}
		if cfg.WithTimestamp {
			opts = append(opts, printers.WithTimestamp[*printers.PlainPrinter]())
		}
		if cfg.WithSourceAddress {
			opts = append(opts, printers.WithSourceAddress[*printers.PlainPrinter]())
		}
		return printers.NewPlainPrinter(opts...), nil

	default:
		opts := []printers.ColorPrinterOption{}
		if cfg.WithTimestamp {
			opts = append(opts, printers.WithTimestamp[*printers.ColorPrinter]())
		}
		if cfg.WithSourceAddress {
			opts = append(opts, printers.WithSourceAddress[*printers.ColorPrinter]())
		}
		return printers.NewColorPrinter(opts...), nil
	}
}

// PrinterConfig holds all configuration options for Printer creation
type PrinterConfig struct {
	OutputJSON        bool
	PrettyJSON        bool
	NoColor           bool
	WithTimestamp     bool
	WithSourceAddress bool
	OutputDBPath      string
	OutputCSVPath     string
	Target            string
	Port              string
}
