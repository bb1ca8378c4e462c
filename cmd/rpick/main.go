package main

import (
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpick/internal/cli"
)

func main() {
	// Set UTF-8 as fallback encoding for maximum compatibility
	tcell.SetEncodingFallback(tcell.EncodingFallbackUTF8)

	os.Exit(cli.Execute())
}
