package tui

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(bannerLines) {
		t.Errorf("expected %d banner lines, got %d", len(bannerLines), len(lines))
	}
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(40)
	out, err := render("**bold** text")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(out, "bold") || !strings.Contains(out, "text") {
		t.Errorf("rendered output lost content: %q", out)
	}
}
