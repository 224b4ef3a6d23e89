package printers

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/option"
)

// JSONEventType is a special type for each method
// in the printer interface so that automatic tools
// can understand what kind of an event they've received.
// For instance, start vs probe vs payload...
type JSONEventType string

const (
	startEvent   JSONEventType = "start"   // Event type for `PrintStart` method.
	probeEvent   JSONEventType = "probe"   // Event type for both `PrintProbeSuccess` and `PrintProbeFailure`.
	payloadEvent JSONEventType = "payload" // Event type for `PrintPayload` method.
	errorEvent   JSONEventType = "error"   // Event type for `PrintError` method.
)

// JSONData contains all possible fields for JSON output.
// Because one event usually contains only a subset of fields,
// other fields will be omitted in the output.
type JSONData struct {
	Type JSONEventType `json:"type"` // Specifies type of a message/event.
	// Success is a special field from probe and payload messages, containing
	// information whether the request was successful or not.
	// It's a pointer on purpose, otherwise success=false will be omitted,
	// but we still need to omit it for other messages.
	Success    *bool  `json:"success,omitempty"`
	Seq        uint   `json:"seq,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	Message    string `json:"message"` // Message contains a message similar to other plain and colored printers.
	IPAddr     string `json:"ipAddress,omitempty"`
	Hostname   string `json:"hostname,omitempty"`
	Port       uint16 `json:"port,omitempty"`
	SourceAddr string `json:"sourceAddress,omitempty"`
	Error      string `json:"error,omitempty"`

	RTT     int64   `json:"time,omitempty"`    // RTT in whole ms, as printed by the console printers.
	Latency float32 `json:"latency,omitempty"` // Latency in ms with sub-millisecond precision.

	BytesSent     int    `json:"bytesSent,omitempty"`
	BytesReceived *int   `json:"bytesReceived,omitempty"`
	Response      string `json:"response,omitempty"`
}

// JSONPrinter is a struct that holds a JSON encoder to print structured JSON output.
type JSONPrinter struct {
	encoder *json.Encoder
	opt     options
}

type JSONPrinterOption = option.Option[JSONPrinter]

func (p *JSONPrinter) options() *options {
	return &p.opt
}

// WithPrettyJSON indents every event.
func WithPrettyJSON() JSONPrinterOption {
	return func(p *JSONPrinter) {
		p.encoder.SetIndent("", "\t")
	}
}

// NewJSONPrinter creates a new JSONPrinter instance writing to stdout.
func NewJSONPrinter(opts ...JSONPrinterOption) *JSONPrinter {
	return option.Apply(&JSONPrinter{encoder: json.NewEncoder(os.Stdout)}, opts...)
}

// PrintStart prints the initial message before doing probes.
func (p *JSONPrinter) PrintStart(hostname string, target netip.AddrPort) {
	p.encoder.Encode(JSONData{
		Type:     startEvent,
		Message:  startMessage(target),
		Hostname: hostname,
		IPAddr:   target.Addr().String(),
		Port:     target.Port(),
	})
}

func (p *JSONPrinter) attemptData(a *attempt.Attempt, typ JSONEventType) JSONData {
	data := JSONData{
		Type:     typ,
		Seq:      a.Seq,
		Hostname: a.Hostname,
		IPAddr:   a.Target.Addr().String(),
		Port:     a.Target.Port(),
	}

	if p.opt.ShowTimestamp {
		data.Timestamp = a.StartTime.Format(time.RFC3339)
	}

	if p.opt.ShowSourceAddress {
		data.SourceAddr = a.SourceAddr()
	}

	return data
}

// PrintProbeSuccess prints successful TCP probe replies in JSON format.
func (p *JSONPrinter) PrintProbeSuccess(a *attempt.Attempt) {
	data := p.attemptData(a, probeEvent)
	data.Success = ptr(true)
	data.Outcome = a.Outcome.String()
	data.Message = successMessage(a, &p.opt)
	data.RTT = a.RTTMillis()
	data.Latency = a.LatencyMs()

	p.encoder.Encode(data)
}

// PrintProbeFailure prints a JSON message for a failed probe.
func (p *JSONPrinter) PrintProbeFailure(a *attempt.Attempt) {
	data := p.attemptData(a, probeEvent)
	data.Success = ptr(false)
	data.Outcome = a.Outcome.String()
	data.Message = failureMessage(a)
	data.Error = a.ErrStr()

	p.encoder.Encode(data)
}

// PrintPayload prints the payload exchange that followed a successful probe.
func (p *JSONPrinter) PrintPayload(a *attempt.Attempt) {
	if a.Payload == nil {
		return
	}

	data := p.attemptData(a, payloadEvent)
	data.Success = ptr(!a.Payload.Failed())
	data.Message = payloadMessage(a)
	data.BytesSent = a.Payload.Sent

	if a.Payload.Failed() {
		data.Error = a.Payload.Err.Error()
	} else {
		data.BytesReceived = ptr(len(a.Payload.Received))
		data.Response = a.Payload.Text()
	}

	p.encoder.Encode(data)
}

// PrintError prints an error message in JSON format.
func (p *JSONPrinter) PrintError(format string, args ...any) {
	p.encoder.Encode(JSONData{
		Type:    errorEvent,
		Message: fmt.Sprintf(format, args...),
	})
}

// Done is a no-op, as every event is written when it happens.
func (p *JSONPrinter) Done() error {
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
