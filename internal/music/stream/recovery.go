package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/keshon/jukebox/internal/music/track"
	"github.com/keshon/jukebox/pkg/retrylimit"
)

const maxRecoveryAttempts = 3

// ErrNoAudio means the pipeline closed before producing a single frame.
var ErrNoAudio = errors.New("stream produced no audio")

// openRecovering opens src and reads its first PCM frame, reopening the
// pipeline when it dies before producing audio. The returned reader replays
// that frame first.
func openRecovering(ctx context.Context, open Opener, src track.Source) (io.ReadCloser, error) {
	var rc io.ReadCloser
	first := make([]byte, frameSize*channels*2)

	policy := retrylimit.Policy{Attempts: maxRecoveryAttempts, Delay: 500 * time.Millisecond, Multiplier: 2}
	err := retrylimit.Do(ctx, nil, policy, func(ctx context.Context) error {
		r, err := open(ctx, src)
		if err != nil {
			return err
		}
		if _, err := io.ReadFull(r, first); err != nil {
			_ = r.Close()
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return ErrNoAudio
			}
			return fmt.Errorf("read error: %w", err)
		}
		rc = r
		return nil
	})
	if err != nil {
		log.Printf("[Stream] %s: giving up: %v", src.URL, err)
		return nil, err
	}
	return &prefixed{Reader: io.MultiReader(bytes.NewReader(first), rc), closer: rc}, nil
}

type prefixed struct {
	io.Reader
	closer io.Closer
}

func (p *prefixed) Close() error { return p.closer.Close() }
