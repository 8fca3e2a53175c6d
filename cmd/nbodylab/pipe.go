package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodylab/internal/dynamo"
	"github.com/san-kum/nbodylab/internal/engine"
	"github.com/san-kum/nbodylab/internal/logging"
)

const maxCommandLine = 16 << 20

type pipeFlags struct {
	paused      bool
	tick        time.Duration
	frameBuffer int
	queueSize   int
}

func (a *app) pipeCmd() *cobra.Command {
	var f pipeFlags
	cmd := &cobra.Command{
		Use:   "pipe",
		Short: "drive an engine with JSON-lines commands on stdin, frames on stdout",
		Long: `pipe reads one JSON command per line from stdin, for example

  {"type":"init","bodies":[{"pos":{"x":0,"y":0},"vel":{"x":0,"y":0},"mass":1}],"params":{"G":1,"eps":0.01,"dt":0.001,"method":"leapfrog"}}
  {"type":"play","playing":false}
  {"type":"step","steps":10}
  {"type":"updateParams","params":{"method":"rk4"}}

and writes every frame as a JSON line to stdout. Rejected commands are
reported as {"type":"error",...} lines. At end of input every accepted
command is processed before the engine stops.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.pipe(cmd.Context(), f, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&f.paused, "paused", false, "start with the heartbeat paused")
	cmd.Flags().DurationVar(&f.tick, "tick", 16*time.Millisecond, "minimum heartbeat interval (0 runs back to back)")
	cmd.Flags().IntVar(&f.frameBuffer, "frame-buffer", 64, "frames buffered for the output writer")
	cmd.Flags().IntVar(&f.queueSize, "queue", engine.DefaultQueueSize, "command queue size")
	return cmd
}

type errorLine struct {
	Type    string `json:"type"`
	Line    int    `json:"line"`
	Command string `json:"command,omitempty"`
	Error   string `json:"error"`
}

// lineWriter serializes whole lines from the frame and error writers.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) writeLine(b []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	_, err := l.w.Write([]byte{'\n'})
	return err
}

func (a *app) pipe(ctx context.Context, f pipeFlags, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eng := engine.New(
		engine.WithLogger(a.log),
		engine.WithMetrics(a.metrics),
		engine.WithPlaying(!f.paused),
		engine.WithTickInterval(f.tick),
		engine.WithFrameBuffer(f.frameBuffer),
		engine.WithQueueSize(f.queueSize),
	)
	go func() { _ = eng.Run(ctx) }()

	lw := &lineWriter{w: out}
	var (
		wg       sync.WaitGroup
		writeErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for fr := range eng.Frames() {
			b, err := engine.EncodeFrame(fr)
			if err == nil {
				err = lw.writeLine(b)
			}
			if err != nil && writeErr == nil {
				writeErr = err
				cancel()
			}
		}
	}()

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxCommandLine)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		c, err := engine.DecodeCommand(line)
		if err == nil {
			err = eng.Send(ctx, c)
		}
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			break
		}

		rep := errorLine{Type: "error", Line: lineNo, Error: err.Error()}
		var ce *dynamo.CommandError
		if errors.As(err, &ce) {
			rep.Command = ce.Command
		}
		a.log.Warn(ctx, "command failed", logging.Int("line", lineNo), logging.Err(err))
		b, _ := json.Marshal(rep)
		if err := lw.writeLine(b); err != nil {
			cancel()
			break
		}
	}
	scanErr := sc.Err()

	syncErr := eng.Sync(ctx)
	cancel()
	wg.Wait()

	if errors.Is(syncErr, context.Canceled) {
		syncErr = nil
	}
	return errors.Join(scanErr, syncErr, writeErr)
}
