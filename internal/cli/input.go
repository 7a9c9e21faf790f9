package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// lineReader reads lines on a background goroutine so a blocked read never
// prevents a cancelled context from returning.
type lineReader struct {
	reader *bufio.Reader
	lines  chan lineResult
	done   chan struct{}
	once   sync.Once
	stop   sync.Once
}

type lineResult struct {
	text string
	err  error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{reader: bufio.NewReader(r), done: make(chan struct{})}
}

// Close stops the pump. A read already blocked on the source ends with it,
// the pump exits instead of waiting for a consumer.
func (l *lineReader) Close() {
	l.stop.Do(func() { close(l.done) })
}

func (l *lineReader) pump() {
	defer close(l.lines)
	for {
		text, err := l.reader.ReadString('\n')
		if text != "" && !l.send(lineResult{text: text}) {
			return
		}
		if err != nil {
			l.send(lineResult{err: err})
			return
		}
	}
}

func (l *lineReader) send(res lineResult) bool {
	select {
	case l.lines <- res:
		return true
	case <-l.done:
		return false
	}
}

// Line blocks until a line is read, the input ends (io.EOF) or ctx is done.
func (l *lineReader) Line(ctx context.Context) (string, error) {
	l.once.Do(func() {
		l.lines = make(chan lineResult)
		go l.pump()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}
