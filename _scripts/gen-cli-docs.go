//go:build ignore

package main

import (
	"bufio"
	"log"
	"os"
	"path/filepath"

	"github.com/go-delve/elfdb/pkg/terminal"
)

const cliDoc = "./Documentation/cli/README.md"

func main() {
	if err := os.MkdirAll(filepath.Dir(cliDoc), 0o755); err != nil {
		log.Fatalf("could not create documentation directory: %v", err)
	}
	fh, err := os.Create(cliDoc)
	if err != nil {
		log.Fatalf("could not create README.md: %v", err)
	}
	defer fh.Close()

	w := bufio.NewWriter(fh)
	defer w.Flush()

	terminal.DebugCommands(nil).WriteMarkdown(w)
}
