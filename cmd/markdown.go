package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
)

// printMarkdown writes md to w, styled for the terminal when w is one.
func printMarkdown(w io.Writer, md string) {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
		if err == nil {
			if out, err := r.Render(md); err == nil {
				md = out
			}
		}
	}
	fmt.Fprint(w, md)
}
