package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/example/scanventory/internal/scan"
)

type keyFeeder interface {
	FeedKeys(ctx context.Context, events []scan.KeyEvent) (int, error)
}

// pumpKeys turns a keyboard-wedge scanner attached to r into key events. Each
// UTF-8 rune is one key; CR and LF become Enter and flush the pending burst.
func pumpKeys(ctx context.Context, r io.Reader, feeder keyFeeder, now func() time.Time) error {
	reader := bufio.NewReader(r)
	burst := make([]scan.KeyEvent, 0, 32)

	flush := func() error {
		if len(burst) == 0 {
			return nil
		}
		_, err := feeder.FeedKeys(ctx, burst)
		burst = burst[:0]
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ch, _, err := reader.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return flush()
			}
			return err
		}

		switch ch {
		case '\r', '\n':
			burst = append(burst, scan.KeyEvent{Key: "Enter", Code: "Enter", KeyCode: 13, At: now()})
			if err := flush(); err != nil {
				return err
			}
		default:
			burst = append(burst, scan.KeyEvent{Key: string(ch), At: now()})
		}
	}
}
