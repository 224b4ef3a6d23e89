package printers

import (
	"encoding/csv"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/option"
)

const (
	colTimestamp     string = "Timestamp"
	colSeq           string = "Seq"
	colStatus        string = "Status"
	colHostname      string = "Hostname"
	colIP            string = "IP"
	colPort          string = "Port"
	colSourceAddress string = "Source Address"
	colLatency       string = "Latency(ms)"
	colError         string = "Error"
	colBytesSent     string = "Bytes Sent"
	colBytesReceived string = "Bytes Received"
	colResponse      string = "Response"
)

const (
	filePermission os.FileMode = 0644
	fileFlag       int         = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
)

// CSVPrinter writes one record per attempt to a CSV file.
type CSVPrinter struct {
	ProbeWriter *csv.Writer
	ProbeFile   *os.File
	opt         options
}

type CSVPrinterOption = option.Option[CSVPrinter]

func (p *CSVPrinter) options() *options {
	return &p.opt
}

// NewCSVPrinter creates the CSV file at filePath, adding a .csv extension if
// missing, and writes the header row.
func NewCSVPrinter(filePath string, opts ...CSVPrinterOption) (*CSVPrinter, error) {
	probeFilename := addCSVExtension(filePath)

	probeFile, err := os.OpenFile(probeFilename, fileFlag, filePermission)
	if err != nil {
		return nil, fmt.Errorf("create probe CSV file %s: %w", probeFilename, err)
	}

	p := option.Apply(&CSVPrinter{
		ProbeWriter: csv.NewWriter(probeFile),
		ProbeFile:   probeFile,
	}, opts...)

	if err := p.writeProbeHeader(); err != nil {
		return nil, multierr.Append(err, probeFile.Close())
	}

	return p, nil
}

func addCSVExtension(filename string) string {
	if strings.HasSuffix(filename, ".csv") {
		return filename
	}

	return filename + ".csv"
}

func (p *CSVPrinter) writeProbeHeader() error {
	headers := []string{}

	if p.opt.ShowTimestamp {
		headers = append(headers, colTimestamp)
	}

	headers = append(headers, colSeq, colStatus, colHostname, colIP, colPort)

	if p.opt.ShowSourceAddress {
		headers = append(headers, colSourceAddress)
	}

	headers = append(headers, colLatency, colError, colBytesSent, colBytesReceived, colResponse)

	if err := p.ProbeWriter.Write(headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}

	p.ProbeWriter.Flush()

	return p.ProbeWriter.Error()
}

// PrintStart tells the user where the results go.
func (p *CSVPrinter) PrintStart(_ string, target netip.AddrPort) {
	fmt.Printf("%s - saving the results to: %s\n", startMessage(target), p.ProbeFile.Name())
}

func (p *CSVPrinter) record(a *attempt.Attempt) []string {
	record := []string{}

	if p.opt.ShowTimestamp {
		record = append(record, a.StartTimeFormatted())
	}

	record = append(
		record,
		strconv.FormatUint(uint64(a.Seq), 10),
		a.Outcome.String(),
		a.Hostname,
		a.Target.Addr().String(),
		strconv.FormatUint(uint64(a.Target.Port()), 10),
	)

	if p.opt.ShowSourceAddress {
		record = append(record, a.SourceAddr())
	}

	latency := ""
	if a.Succeeded() {
		latency = a.RTTStr()
	}

	errStr := a.ErrStr()
	sent, received, response := "", "", ""
	if pl := a.Payload; pl != nil {
		sent = strconv.Itoa(pl.Sent)
		if pl.Failed() {
			errStr = pl.Err.Error()
		} else {
			received = strconv.Itoa(len(pl.Received))
			response = pl.Text()
		}
	}

	return append(record, latency, errStr, sent, received, response)
}

func (p *CSVPrinter) write(a *attempt.Attempt) {
	if err := p.ProbeWriter.Write(p.record(a)); err != nil {
		p.PrintError("Failed to write record: %v", err)
	}

	p.ProbeWriter.Flush()
}

// PrintProbeSuccess writes a successful attempt, including its payload exchange.
func (p *CSVPrinter) PrintProbeSuccess(a *attempt.Attempt) {
	p.write(a)
}

// PrintProbeFailure writes a failed attempt.
func (p *CSVPrinter) PrintProbeFailure(a *attempt.Attempt) {
	p.write(a)
}

// PrintPayload is a no-op, the exchange is part of the success record.
func (p *CSVPrinter) PrintPayload(*attempt.Attempt) {}

// PrintError logs an error message to stderr.
func (p *CSVPrinter) PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "CSV Error: "+format+"\n", args...)
}

// Done flushes the writer and closes the file.
func (p *CSVPrinter) Done() error {
	var err error

	if p.ProbeWriter != nil {
		p.ProbeWriter.Flush()
		err = multierr.Append(err, p.ProbeWriter.Error())
	}

	if p.ProbeFile != nil {
		err = multierr.Append(err, p.ProbeFile.Close())
	}

	return err
}
