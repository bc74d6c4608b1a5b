package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/charmbracelet/lipgloss"
)

// Styles controls how option lists are drawn.
type Styles struct {
	Index  lipgloss.Style
	Option lipgloss.Style
	Hint   lipgloss.Style
	System lipgloss.Style
}

// DefaultStyles returns the terminal palette.
func DefaultStyles() Styles {
	return Styles{
		Index:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		Option: lipgloss.NewStyle(),
		Hint:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
		System: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// TextHandler implements the standard text-based interface.
// Multiple-choice options are numbered and may be answered by number.
type TextHandler struct {
	Reader    *bufio.Reader
	Writer    io.Writer
	Renderer  ContentRenderer
	Styles    Styles
	Sanitizer Sanitizer

	mu      sync.Mutex // guards Writer and choices
	choices []string

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerStyles replaces DefaultStyles.
func WithTextHandlerStyles(styles Styles) TextHandlerOption {
	return func(h *TextHandler) {
		h.Styles = styles
	}
}

// WithTextHandlerMaxInput caps the size of an accepted line in bytes.
func WithTextHandlerMaxInput(n int) TextHandlerOption {
	return func(h *TextHandler) {
		h.Sanitizer = NewSanitizer(n)
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Styles: DefaultStyles(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// Output prints the message content followed by its options.
func (h *TextHandler) Output(ctx context.Context, msg domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	output := msg.Content
	if h.Renderer != nil {
		if rendered, err := h.Renderer(msg.Content); err == nil {
			output = rendered
		}
	}
	if output = strings.TrimSpace(output); output != "" {
		fmt.Fprintln(h.Writer, output)
	}

	h.choices = nil
	switch msg.Type {
	case domain.BlockMC:
		h.choices = msg.Params.Options
		h.numbered(msg.Params.Options)
	case domain.BlockList:
		for _, item := range msg.Params.Options {
			fmt.Fprintf(h.Writer, "  - %s\n", h.Styles.Option.Render(item))
		}
		if hint := listHint(msg.Params); hint != "" {
			fmt.Fprintln(h.Writer, h.Styles.Hint.Render(hint))
		}
	case domain.BlockAutoComplete:
		if len(msg.Params.Options) > 0 {
			fmt.Fprintln(h.Writer, h.Styles.Hint.Render("options: "+strings.Join(msg.Params.Options, ", ")))
		}
	}
	return nil
}

func (h *TextHandler) numbered(options []string) {
	for i, opt := range options {
		fmt.Fprintf(h.Writer, "  %s %s\n", h.Styles.Index.Render(strconv.Itoa(i+1)+")"), h.Styles.Option.Render(opt))
	}
}

func listHint(p domain.Params) string {
	text := p.TextInput != nil && *p.TextInput
	number := p.NumberInput != nil && *p.NumberInput
	switch {
	case text && number:
		return "(type an answer or a number)"
	case text:
		return "(type an answer)"
	case number:
		return "(type a number)"
	}
	return ""
}

// Input prompts and reads one sanitized line. A bare number answers the
// last multiple-choice question with the option of that index.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			h.write("> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			text := strings.TrimSpace(res.text)

			clean, err := h.Sanitizer.Clean(text)
			if err != nil {
				h.write(fmt.Sprintf("Error: %v. Please try again.\n", err))
				continue
			}
			return h.choice(clean), nil
		}
	}
}

func (h *TextHandler) choice(text string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > len(h.choices) {
		return text
	}
	return h.choices[n-1]
}

// SystemOutput prints a meta-message.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	h.write("\n" + h.Styles.System.Render("[System] "+msg) + "\n")
	return nil
}

func (h *TextHandler) write(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprint(h.Writer, s)
}
