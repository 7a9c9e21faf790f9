package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/whiteboard/pkg/stream"
	"google.golang.org/genai"
)

// responseStream flattens SDK response chunks into stream events.
type responseStream struct {
	next  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
	newID func() string

	queue    []stream.Event
	reason   genai.FinishReason
	sawCalls bool
	done     bool
}

func (s *responseStream) Next(ctx context.Context) (stream.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			return ev, nil
		}
		if s.done {
			return nil, io.EOF
		}

		resp, err, ok := s.next()
		if !ok {
			s.done = true
			s.queue = append(s.queue, stream.Finish{Reason: finishReason(s.reason, s.sawCalls)})
			continue
		}
		if err != nil {
			s.done = true
			return nil, fmt.Errorf("gemini stream: %w", err)
		}
		if err := s.absorb(resp); err != nil {
			s.done = true
			return nil, err
		}
	}
}

func (s *responseStream) absorb(resp *genai.GenerateContentResponse) error {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != "" {
		s.reason = cand.FinishReason
	}
	if cand.Content == nil {
		return nil
	}

	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.Text != "" {
			s.queue = append(s.queue, stream.TextDelta{Text: part.Text})
		}
		if fc := part.FunctionCall; fc != nil {
			id := fc.ID
			if id == "" {
				id = s.newID()
			}
			args := fc.Args
			if args == nil {
				args = map[string]any{}
			}
			input, err := json.Marshal(args)
			if err != nil {
				return fmt.Errorf("encode function call %s args: %w", fc.Name, err)
			}
			s.sawCalls = true
			s.queue = append(s.queue,
				stream.ToolInputStart{CallID: id, ToolName: fc.Name},
				stream.ToolInputAvailable{CallID: id, ToolName: fc.Name, Input: input},
			)
		}
	}
	return nil
}

func (s *responseStream) Close() error {
	s.done = true
	s.queue = nil
	s.stop()
	return nil
}
