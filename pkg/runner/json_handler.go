package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/tilbot/pkg/domain"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Each bot message is written as one JSON object; each input line is either a
// JSON string or raw text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder

	// Sanitizer screens every decoded line.
	Sanitizer Sanitizer

	mu sync.Mutex
}

// systemLine is written by SystemOutput.
type systemLine struct {
	System string `json:"system"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, msg domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(msg)
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	// Try to unquote if it's a JSON string
	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		text = val
	}
	return h.Sanitizer.Clean(text)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(systemLine{System: msg})
}
