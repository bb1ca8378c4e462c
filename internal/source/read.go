// Package source feeds a matching worker from stdin or a shell command.
package source

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/kk-code-lab/rpick/internal/textutil"
)

// Injector receives records for one worker version. *search.Injector
// satisfies it.
type Injector interface {
	Append(lines ...string) error
	Seal() error
	Version() uint64
}

// DefaultBatch is the most lines handed to the injector at once.
const DefaultBatch = 1024

// Read copies newline-separated records from r into inj, then seals it.
// Lines are batched while input is buffered and flushed as soon as the
// reader would block, so slow producers still show up immediately.
func Read(ctx context.Context, r io.Reader, inj Injector, batch int) error {
	if batch <= 0 {
		batch = DefaultBatch
	}
	// UTF-16 and BOM-prefixed input is decoded to UTF-8 first.
	text, _ := textutil.NewReader(r)
	br := bufio.NewReaderSize(text, 64*1024)
	pending := make([]string, 0, batch)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		err := inj.Append(pending...)
		pending = pending[:0]
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := br.ReadString('\n')
		if line != "" {
			pending = append(pending, trimEOL(line))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				_ = flush()
				return err
			}
			if ferr := flush(); ferr != nil {
				return ferr
			}
			return inj.Seal()
		}
		if len(pending) >= batch || br.Buffered() == 0 {
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
