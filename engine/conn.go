package engine

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Conn is a line-oriented duplex channel to an engine.
type Conn interface {
	WriteLine(line string) error
	ReadLine() (string, error)
	Close() error
}

// ShutdownGrace bounds how long Close waits for the subprocess after
// asking it to terminate.
const ShutdownGrace = 5 * time.Second

type pipeConn struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
	out    *bufio.Reader

	once sync.Once
	err  error
}

// Spawn starts command as a subprocess speaking the engine protocol on its
// standard streams. Standard error is merged into the output stream so
// nothing the engine prints is lost. Cancelling ctx terminates the process.
func Spawn(ctx context.Context, command []string) (Conn, error) {
	if len(command) == 0 {
		return nil, errors.New("engine: empty command")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = ShutdownGrace

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "engine: stdin pipe")
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "engine: output pipe")
	}
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, errors.Wrapf(err, "engine: starting %s", strings.Join(command, " "))
	}
	w.Close()

	log.Info().Int("pid", cmd.Process.Pid).Strs("command", command).Msg("engine started")
	return &pipeConn{
		cmd:    cmd,
		stdin:  stdin,
		stdout: r,
		out:    bufio.NewReader(r),
	}, nil
}

func (c *pipeConn) WriteLine(line string) error {
	if _, err := io.WriteString(c.stdin, line+"\n"); err != nil {
		return errors.Wrap(err, "engine: write")
	}
	return nil
}

// ReadLine returns the next line without its terminator. Records can be
// far longer than a bufio.Scanner token, so the reader grows as needed.
func (c *pipeConn) ReadLine() (string, error) {
	line, err := c.out.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Close ends the engine's input, asks it to terminate and waits for it.
func (c *pipeConn) Close() error {
	c.once.Do(func() {
		c.stdin.Close()
		if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			log.Debug().Err(err).Msg("engine signal")
		}
		err := c.cmd.Wait()
		var exit *exec.ExitError
		if err != nil && !errors.As(err, &exit) {
			c.err = errors.Wrap(err, "engine: wait")
		}
		c.stdout.Close()
		log.Info().Int("pid", c.cmd.Process.Pid).Msg("engine stopped")
	})
	return c.err
}
