package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`  _____ _ _ _           _   `, "#818cf8"},
	{` |_   _(_) | |__   ___ | |_ `, "#a78bfa"},
	{`   | | | | | '_ \ / _ \| __|`, "#c084fc"},
	{`   | | | | | |_) | (_) | |_ `, "#e879f9"},
	{`   |_| |_|_|_.__/ \___/ \__|`, "#f472b6"},
}

// PrintBanner writes the Tilbot banner to w, colored when the terminal supports it.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
