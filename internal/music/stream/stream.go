// /internal/music/stream/stream.go
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"sync"

	"github.com/lrstanley/go-ytdlp"

	"github.com/keshon/jukebox/internal/music/track"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// Pipe is a running yt-dlp | ffmpeg pipeline producing s16le PCM at 48kHz
// stereo.
type Pipe struct {
	out    io.ReadCloser
	ytdlp  *exec.Cmd
	ffmpeg *exec.Cmd
	once   sync.Once
}

// Open starts the pipeline for src. Cancelling ctx kills both processes.
func Open(ctx context.Context, src track.Source, proxy string) (*Pipe, error) {
	dl := ytdlp.New().
		Format("bestaudio/best").
		Output("-").
		NoPlaylist().
		NoPart().
		NoCheckFormats().
		NoWarnings().
		IgnoreConfig().
		Quiet()
	if proxy != "" {
		dl.Proxy(proxy)
	}
	dlCmd := dl.BuildCommand(ctx, src.URL)

	ff := exec.CommandContext(ctx, "ffmpeg",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	ffIn, err := dlCmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp stdout pipe error: %w", err)
	}
	ff.Stdin = ffIn

	out, err := ff.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe error: %w", err)
	}

	if err := dlCmd.Start(); err != nil {
		return nil, fmt.Errorf("yt-dlp start error: %w", err)
	}
	if err := ff.Start(); err != nil {
		_ = dlCmd.Process.Kill()
		_ = dlCmd.Wait()
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return &Pipe{out: out, ytdlp: dlCmd, ffmpeg: ff}, nil
}

func (p *Pipe) Read(b []byte) (int, error) { return p.out.Read(b) }

// Close kills both processes and reaps them.
func (p *Pipe) Close() error {
	p.once.Do(func() {
		for _, c := range []*exec.Cmd{p.ffmpeg, p.ytdlp} {
			if c.Process != nil {
				_ = c.Process.Kill()
			}
		}
		for _, c := range []*exec.Cmd{p.ffmpeg, p.ytdlp} {
			if err := c.Wait(); err != nil && !isKilled(err) {
				log.Printf("[Stream] %s exited: %v", c.Path, err)
			}
		}
	})
	return nil
}

func isKilled(err error) bool {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return !ee.Exited()
	}
	return errors.Is(err, context.Canceled)
}
