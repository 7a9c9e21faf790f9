package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Wire frame types of the UI message stream protocol.
const (
	FrameTextDelta          = "text-delta"
	FrameToolInputStart     = "tool-input-start"
	FrameToolInputDelta     = "tool-input-delta"
	FrameToolInputAvailable = "tool-input-available"
	FrameFinish             = "finish"
	FrameError              = "error"

	doneSentinel = "[DONE]"

	defaultErrorText = "model stream error"
)

// frame is the JSON payload of one `data:` line.
type frame struct {
	Type           string          `json:"type"`
	ID             string          `json:"id,omitempty"`
	Delta          string          `json:"delta,omitempty"`
	ToolCallID     string          `json:"toolCallId,omitempty"`
	ToolName       string          `json:"toolName,omitempty"`
	InputTextDelta string          `json:"inputTextDelta,omitempty"`
	Input          json.RawMessage `json:"input,omitempty"`
	FinishReason   string          `json:"finishReason,omitempty"`
	ErrorText      string          `json:"errorText,omitempty"`
}

// Decoder reads Server-Sent Events in the UI message stream format.
// Frame types it does not model (start, start-step, reasoning, ...) are skipped.
type Decoder struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// NewDecoder wraps an SSE body. Closing the decoder closes the body.
func NewDecoder(body io.ReadCloser) *Decoder {
	scanner := bufio.NewScanner(body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 2*1024*1024)
	return &Decoder{body: body, scanner: scanner}
}

// Next returns the next modelled event.
func (d *Decoder) Next(ctx context.Context) (Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if d.done {
			return nil, io.EOF
		}
		if !d.scanner.Scan() {
			d.done = true
			if err := d.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read event stream: %w", err)
			}
			return nil, io.EOF
		}

		line := d.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == doneSentinel {
			d.done = true
			return nil, io.EOF
		}

		var f frame
		if err := json.Unmarshal([]byte(data), &f); err != nil {
			return nil, fmt.Errorf("decode event frame: %w", err)
		}
		if ev, ok := f.event(); ok {
			return ev, nil
		}
	}
}

// Close releases the underlying body.
func (d *Decoder) Close() error {
	d.done = true
	return d.body.Close()
}

func (f frame) event() (Event, bool) {
	switch f.Type {
	case FrameTextDelta:
		return TextDelta{Text: f.Delta}, true
	case FrameToolInputStart:
		return ToolInputStart{CallID: f.ToolCallID, ToolName: f.ToolName}, true
	case FrameToolInputDelta:
		return ToolInputDelta{CallID: f.ToolCallID, Delta: f.InputTextDelta}, true
	case FrameToolInputAvailable:
		return ToolInputAvailable{CallID: f.ToolCallID, ToolName: f.ToolName, Input: f.Input}, true
	case FrameFinish:
		return Finish{Reason: f.FinishReason}, true
	case FrameError:
		msg := f.ErrorText
		if msg == "" {
			msg = defaultErrorText
		}
		return Failure{Err: errors.New(msg)}, true
	default:
		return nil, false
	}
}

// Encode writes ev as a single SSE data frame.
func Encode(w io.Writer, ev Event) error {
	var f frame
	switch e := ev.(type) {
	case TextDelta:
		f = frame{Type: FrameTextDelta, Delta: e.Text}
	case ToolInputStart:
		f = frame{Type: FrameToolInputStart, ToolCallID: e.CallID, ToolName: e.ToolName}
	case ToolInputDelta:
		f = frame{Type: FrameToolInputDelta, ToolCallID: e.CallID, InputTextDelta: e.Delta}
	case ToolInputAvailable:
		f = frame{Type: FrameToolInputAvailable, ToolCallID: e.CallID, ToolName: e.ToolName, Input: e.Input}
	case Finish:
		f = frame{Type: FrameFinish, FinishReason: e.Reason}
	case Failure:
		f = frame{Type: FrameError, ErrorText: defaultErrorText}
		if e.Err != nil {
			f.ErrorText = e.Err.Error()
		}
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// EncodeDone writes the terminating sentinel frame.
func EncodeDone(w io.Writer) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", doneSentinel)
	return err
}
