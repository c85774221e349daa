package agent

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"vgcbench/codec"
	"vgcbench/engine"
	"vgcbench/game"
)

// Dial opens a connection to a fresh engine. ctx bounds connecting only;
// the connection lives until it is closed.
type Dial func(ctx context.Context) (engine.Conn, error)

// Slot owns at most one engine process. A slot is used by one goroutine at
// a time; slots never share a process.
type Slot struct {
	ID      int
	dial    Dial
	opts    []engine.Option
	process *engine.Process
}

func NewSlot(id int, dial Dial, opts ...engine.Option) *Slot {
	return &Slot{ID: id, dial: dial, opts: opts}
}

// Engine returns a process holding snapshot. A process started for the same
// format and roles is reused; any other configuration replaces it.
func (s *Slot) Engine(ctx context.Context, cfg engine.Config, snapshot codec.Snapshot) (*engine.Process, game.Position, error) {
	if s.process != nil && s.process.Config().Key() == cfg.Key() {
		payload, err := json.Marshal(snapshot)
		if err != nil {
			return nil, game.Position{}, errors.Wrap(err, "encoding snapshot")
		}
		position, err := s.process.Restore(payload)
		if err == nil {
			return s.process, position, nil
		}
		log.Warn().Err(err).Int("slot", s.ID).Msg("restore failed, restarting engine")
	}
	if err := s.Close(); err != nil {
		log.Warn().Err(err).Int("slot", s.ID).Msg("closing engine")
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return nil, game.Position{}, errors.Wrapf(err, "slot %d: dialing engine", s.ID)
	}
	process, position, err := engine.Start(ctx, conn, cfg, snapshot, s.opts...)
	if err != nil {
		conn.Close()
		return nil, game.Position{}, errors.Wrapf(err, "slot %d: starting engine", s.ID)
	}
	s.process = process
	return process, position, nil
}

// Close disposes of the slot's process, if any.
func (s *Slot) Close() error {
	if s.process == nil {
		return nil
	}
	err := s.process.Close()
	s.process = nil
	return err
}
