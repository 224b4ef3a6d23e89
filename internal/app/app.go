// Package app wires user input to the resolver, the pinger, the printer and
// the prober, and turns the outcome into an exit code.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tcpping/tcpping"
	"github.com/tcpping/tcpping/bind"
	"github.com/tcpping/tcpping/dns"
	"github.com/tcpping/tcpping/internal/logging"
	"github.com/tcpping/tcpping/pingers"
)

// Run executes the tcpping application and returns an exit code
func Run() int {
	config, err := ProcessUserInput()
	if err != nil {
		return handleError(err, nil)
	}

	logger, err := logging.NewLogger(config.LogFile)
	if err != nil {
		return handleError(err, nil)
	}
	defer logger.Sync()

	ctx := setupSignalHandler(context.Background())

	return run(ctx, config, logger)
}

// run holds everything after flag parsing so it can be driven from tests.
func run(ctx context.Context, config ProbeConfig, logger *zap.Logger) int {
	target, err := resolveTarget(ctx, config)
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}
		logger.Error("resolve target", zap.String("host", config.Hostname), zap.Error(err))
		return handleError(err, nil)
	}

	pinger, err := buildPinger(target, config)
	if err != nil {
		logger.Error("bind interface", zap.String("interface", config.InterfaceName), zap.Error(err))
		return handleError(err, nil)
	}

	printer, err := tcpping.NewPrinter(config.PrinterConfig)
	if err != nil {
		return handleError(err, nil)
	}

	prober := buildProber(pinger, printer, config, logger)

	logger.Info("probing started",
		zap.String("host", config.Hostname),
		zap.Stringer("target", target),
		zap.Duration("interval", config.Interval),
		zap.Duration("timeout", config.Timeout),
		zap.Uint("count", config.ProbeCountLimit),
	)

	attempts, probeErr := prober.Probe(ctx)

	logger.Info("probing finished", zap.Uint("attempts", attempts), zap.Error(probeErr))

	if err := multierr.Combine(probeErr, printer.Done()); err != nil {
		return handleError(err, printer)
	}

	return 0
}

func resolveTarget(ctx context.Context, config ProbeConfig) (netip.AddrPort, error) {
	opts := []dns.ResolverOption{}

	if config.Timeout > 0 {
		opts = append(opts, dns.WithTimeout(config.Timeout))
	}

	if config.UseIPv4 {
		opts = append(opts, dns.WithIPv4Only())
	} else if config.UseIPv6 {
		opts = append(opts, dns.WithIPv6Only())
	}

	return dns.NewResolver(opts...).ResolveTarget(ctx, config.Hostname, config.Port)
}

func buildPinger(target netip.AddrPort, config ProbeConfig) (*pingers.TCPPinger, error) {
	opts := []pingers.TCPOptions{
		pingers.WithTimeout(config.Timeout),
	}

	if config.InterfaceName != "" {
		iface, err := bind.New(config.InterfaceName)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pingers.WithBinder(iface))
	}

	if config.Payload != nil {
		opts = append(opts, pingers.WithPayload(config.Payload))
	}

	return pingers.NewTCPPinger(target, opts...), nil
}

func buildProber(pinger tcpping.Pinger, printer tcpping.Printer, config ProbeConfig, logger *zap.Logger) *tcpping.Prober {
	opts := []tcpping.ProberOption{
		tcpping.WithPrinter(printer),
		tcpping.WithInterval(config.Interval),
		tcpping.WithProbeCount(config.ProbeCountLimit),
		tcpping.WithLogger(logger),
	}

	if !dns.IsIP(config.Hostname) {
		opts = append(opts, tcpping.WithHostname(config.Hostname))
	}

	return tcpping.NewProber(pinger, opts...)
}

func setupSignalHandler(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	return ctx
}

func handleError(err error, printer tcpping.Printer) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, ErrUsageRequested) {
		PrintUsage()
		return 1
	}

	if errors.Is(err, ErrVersionRequested) {
		PrintVersion()
		return 0
	}

	if errors.Is(err, ErrUpdateCheckRequested) {
		msg, checkErr := CheckForUpdates(context.Background())
		if checkErr != nil {
			printError(checkErr, printer)
			return 1
		}
		fmt.Println(msg)
		return 0
	}

	// the prober already reported the failing attempt
	if errors.Is(err, tcpping.ErrBindFailed) {
		if rest := otherErrors(err); rest != nil {
			printError(rest, printer)
		}
		return 1
	}

	var bindErr *bind.Error
	if errors.As(err, &bindErr) || errors.Is(err, bind.ErrUnsupportedPlatform) {
		printBindError(err, printer)
		return 1
	}

	printError(err, printer)
	return 1
}

// otherErrors drops the bind failure from a combined error.
func otherErrors(err error) error {
	var rest error
	for _, e := range multierr.Errors(err) {
		if !errors.Is(e, tcpping.ErrBindFailed) {
			rest = multierr.Append(rest, e)
		}
	}
	return rest
}

// printBindError reports a bind failure on stdout, the same stream the
// prober uses when binding fails during an attempt.
func printBindError(err error, printer tcpping.Printer) {
	if printer != nil {
		printer.PrintError("Bind socket failed: %v", err)
		return
	}

	fmt.Printf("Bind socket failed: %v\n", err)
}

func printError(err error, printer tcpping.Printer) {
	if printer != nil {
		printer.PrintError("%v", err)
		return
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
