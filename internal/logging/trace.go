package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"
)

const maxDetail = 256

// Event is one decision of a rewrite pass, written as a single JSON line.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Stage     string    `json:"stage"`
	Action    string    `json:"action"`
	Rule      string    `json:"rule,omitempty"`
	Loader    string    `json:"loader,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

type TraceLogger struct {
	w io.Writer
}

func NewTraceLogger(w io.Writer) *TraceLogger {
	return &TraceLogger{w: w}
}

func OpenTrace(path string) (*TraceLogger, func() error, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return NewTraceLogger(file), file.Close, nil
}

// Write appends event. A nil logger discards it.
func (l *TraceLogger) Write(event Event) error {
	if l == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if len(event.Detail) > maxDetail {
		event.Detail = event.Detail[:maxDetail]
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = l.w.Write(append(data, '\n'))
	return err
}
