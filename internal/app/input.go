package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"golang.org/x/term"

	"github.com/tcpping/tcpping"
	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/internal/config"
)

var (
	// ErrUsageRequested indicates usage help was requested
	ErrUsageRequested = errors.New("usage requested")

	// ErrVersionRequested indicates version display was requested
	ErrVersionRequested = errors.New("version requested")

	// ErrUpdateCheckRequested indicates update check was requested
	ErrUpdateCheckRequested = errors.New("update check requested")

	// ErrInvalidInput indicates a flag or argument value was rejected
	ErrInvalidInput = errors.New("invalid input")
)

// ProbeConfig contains all configuration needed to create and run a prober.
// It is not modified once ParseArgs returns.
type ProbeConfig struct {
	// Target configuration
	Hostname string
	Port     uint16

	// Network options
	UseIPv4       bool
	UseIPv6       bool
	InterfaceName string

	// Timing options
	Timeout  time.Duration
	Interval time.Duration

	// Probe control
	ProbeCountLimit uint
	Payload         []byte // nil unless --payload was given

	// Output options
	PrinterConfig tcpping.PrinterConfig
	LogFile       string
}

type options struct {
	useIPv4               bool
	useIPv6               bool
	showTimestamp         bool
	showSourceAddress     bool
	outputJSON            bool
	prettyJSON            bool
	noColor               bool
	probesBeforeQuit      uint
	intName               string
	payload               string
	saveToCSV             string
	saveToDB              string
	configPath            string
	logFile               string
	timeout               float64
	intervalBetweenProbes float64
	showVer               bool
	checkUpdates          bool
}

// valueFlags lists the flags that consume the following argument.
var valueFlags = []string{
	"i", "interval",
	"t", "timeout",
	"c", "count",
	"b", "boundif",
	"payload",
	"csv",
	"db",
	"config",
	"log-file",
}

// newFlagSet registers every flag on a fresh set, with short and long
// spellings sharing one variable.
func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("tcpping", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		// no-op, we'll handle usage in app package
	}

	defaults := config.DefaultConfig()

	fs.BoolVar(&opts.useIPv4, "4", false, "only use IPv4 to initiate probes.")
	fs.BoolVar(&opts.useIPv6, "6", false, "only use IPv6 to initiate probes.")

	for _, name := range []string{"c", "count"} {
		fs.UintVar(&opts.probesBeforeQuit, name, defaults.Count,
			"stop after <n> probes, regardless of the result. By default, no limit will be applied.")
	}
	for _, name := range []string{"i", "interval"} {
		fs.Float64Var(&opts.intervalBetweenProbes, name, defaults.Interval,
			"interval between probes, in seconds. Real number allowed with dot as a decimal separator.")
	}
	for _, name := range []string{"t", "timeout"} {
		fs.Float64Var(&opts.timeout, name, defaults.Timeout,
			"time to wait for the handshake, in seconds. Real number allowed. 0 means no timeout.")
	}
	for _, name := range []string{"b", "boundif"} {
		fs.StringVar(&opts.intName, name, "",
			"bind every probe socket to the named network interface (Linux and macOS).")
	}

	fs.StringVar(&opts.payload, "payload", "",
		"send <text> after connecting and print up to 1024 bytes of the reply.")
	fs.BoolVar(&opts.showTimestamp, "D", false, "show timestamp for each probe in the output.")
	fs.BoolVar(&opts.showSourceAddress, "show-source-address", false, "show source address and port used for probes.")
	fs.BoolVar(&opts.outputJSON, "j", false, "output in JSON format.")
	fs.BoolVar(&opts.prettyJSON, "pretty", false,
		"use indentation when using json output format. No effect without the '-j' flag.")
	fs.BoolVar(&opts.noColor, "no-color", false, "do not colorize output.")
	fs.StringVar(&opts.saveToCSV, "csv", "", "path and file name to store every probe to a CSV file.")
	fs.StringVar(&opts.saveToDB, "db", "", "path and file name to store every probe to a sqlite3 database.")
	fs.StringVar(&opts.configPath, "config", "", "read default settings from a YAML file. Flags take precedence.")
	fs.StringVar(&opts.logFile, "log-file", "", "write a JSON diagnostic log of every probe to this file.")
	fs.BoolVar(&opts.showVer, "v", false, "show version and exit.")
	fs.BoolVar(&opts.checkUpdates, "u", false, "check for updates and exit.")

	return fs
}

// setFromConfig fills every option the user did not pass on the command line
// from the configuration file.
func setFromConfig(opts *options, visited map[string]bool, cfg config.Config) {
	isSet := func(names ...string) bool {
		return slices.ContainsFunc(names, func(n string) bool { return visited[n] })
	}

	if !isSet("i", "interval") {
		opts.intervalBetweenProbes = cfg.Interval
	}
	if !isSet("t", "timeout") {
		opts.timeout = cfg.Timeout
	}
	if !isSet("c", "count") {
		opts.probesBeforeQuit = cfg.Count
	}
	if !isSet("b", "boundif") {
		opts.intName = cfg.BoundIf
	}
	if !isSet("payload") && cfg.Payload != nil {
		opts.payload = *cfg.Payload
		visited["payload"] = true
	}
	// a family pinned on the command line replaces the file's choice
	if !isSet("4", "6") {
		opts.useIPv4 = cfg.IPv4
		opts.useIPv6 = cfg.IPv6
	}
	if !isSet("no-color") {
		opts.noColor = cfg.NoColor
	}
	if !isSet("D") {
		opts.showTimestamp = cfg.Timestamp
	}
	if !isSet("log-file") {
		opts.logFile = cfg.LogFile
	}
}

// setOptions assigns the user provided flags after sanity checks
func setOptions(cfg *ProbeConfig, opts options, payloadSet bool) error {
	if opts.useIPv4 && opts.useIPv6 {
		return fmt.Errorf("%w: only one IP version can be specified", ErrInvalidInput)
	}

	if !attempt.ValidSeconds(opts.intervalBetweenProbes) {
		return fmt.Errorf("%w: interval must be between 0 and %.0f seconds", ErrInvalidInput, attempt.MaxSeconds)
	}

	if !attempt.ValidSeconds(opts.timeout) {
		return fmt.Errorf("%w: timeout must be between 0 and %.0f seconds", ErrInvalidInput, attempt.MaxSeconds)
	}

	cfg.UseIPv4 = opts.useIPv4
	cfg.UseIPv6 = opts.useIPv6
	cfg.InterfaceName = opts.intName
	cfg.ProbeCountLimit = opts.probesBeforeQuit
	cfg.Timeout = attempt.SecondsToDuration(opts.timeout)
	cfg.Interval = attempt.SecondsToDuration(opts.intervalBetweenProbes)
	cfg.LogFile = opts.logFile

	if payloadSet {
		cfg.Payload = []byte(opts.payload)
	}

	return nil
}

// convertAndValidatePort validates and returns the TCP port
func convertAndValidatePort(portStr string) (uint16, error) {
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: port number %q should be in 0..65535 range", ErrInvalidInput, portStr)
	}

	return uint16(port), nil
}

// permuteArgs permute args for flag parsing stops just before the first non-flag argument.
// see: https://pkg.go.dev/flag
func permuteArgs(args []string) error {
	var flagArgs []string
	var nonFlagArgs []string

	for i := 0; i < len(args); i++ {
		v := args[i]
		if len(v) < 2 || v[0] != '-' {
			nonFlagArgs = append(nonFlagArgs, v)
			continue
		}

		optionName := v[1:]
		if v[1] == '-' {
			optionName = v[2:]
		}

		if !slices.Contains(valueFlags, optionName) {
			flagArgs = append(flagArgs, v)
			continue
		}

		// out of index
		if len(args) <= i+1 {
			return ErrUsageRequested
		}

		// the next flag has come. A payload may legitimately start with a dash.
		optionVal := args[i+1]
		if optionName != "payload" && len(optionVal) > 0 && optionVal[0] == '-' {
			return ErrUsageRequested
		}

		flagArgs = append(flagArgs, args[i:i+2]...)
		i++
	}
	permutedArgs := slices.Concat(flagArgs, nonFlagArgs)

	// replace args in place
	for i := range len(args) {
		args[i] = permutedArgs[i]
	}

	return nil
}

// ParseArgs parses the command line arguments, without the program name.
// Returns ErrUsageRequested, ErrVersionRequested, or ErrUpdateCheckRequested
// for special control flow.
func ParseArgs(args []string) (ProbeConfig, error) {
	args = slices.Clone(args)

	var opts options
	fs := newFlagSet(&opts)

	if err := permuteArgs(args); err != nil {
		return ProbeConfig{}, err
	}

	if err := fs.Parse(args); err != nil {
		return ProbeConfig{}, fmt.Errorf("%w: %w", ErrUsageRequested, err)
	}

	if opts.showVer {
		return ProbeConfig{}, ErrVersionRequested
	}

	if opts.checkUpdates {
		return ProbeConfig{}, ErrUpdateCheckRequested
	}

	positional := fs.Args()
	if len(positional) != 2 {
		return ProbeConfig{}, ErrUsageRequested
	}

	visited := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { visited[f.Name] = true })

	if opts.configPath != "" {
		fileCfg, err := config.Load(opts.configPath)
		if err != nil {
			return ProbeConfig{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		setFromConfig(&opts, visited, fileCfg)
	}

	port, err := convertAndValidatePort(positional[1])
	if err != nil {
		return ProbeConfig{}, err
	}

	cfg := ProbeConfig{
		Hostname: positional[0],
		Port:     port,
		PrinterConfig: tcpping.PrinterConfig{
			OutputJSON:        opts.outputJSON,
			PrettyJSON:        opts.prettyJSON,
			NoColor:           opts.noColor,
			WithTimestamp:     opts.showTimestamp,
			WithSourceAddress: opts.showSourceAddress,
			OutputDBPath:      opts.saveToDB,
			OutputCSVPath:     opts.saveToCSV,
			Target:            positional[0],
			Port:              positional[1],
		},
	}

	if err := setOptions(&cfg, opts, visited["payload"]); err != nil {
		return ProbeConfig{}, err
	}

	return cfg, nil
}

// ProcessUserInput parses os.Args and turns colors off when stdout is not a terminal.
func ProcessUserInput() (ProbeConfig, error) {
	cfg, err := ParseArgs(os.Args[1:])
	if err != nil {
		return cfg, err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.PrinterConfig.NoColor = true
	}

	return cfg, nil
}
