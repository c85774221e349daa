package engine

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Narrator receives every line that does not drive the protocol.
type Narrator interface {
	Narrate(msg Message)
}

// LogNarrator writes narration to the global logger at debug level.
type LogNarrator struct {
	Battle string
}

func (n LogNarrator) Narrate(msg Message) {
	log.Debug().Str("battle", n.Battle).Str("kind", msg.Kind.String()).Str("tag", msg.Tag).Msg(msg.Raw)
}

// Recorder keeps narration in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Narrate(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Lines returns the raw text of everything recorded so far.
func (r *Recorder) Lines() []string {
	msgs := r.Messages()
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.Raw
	}
	return lines
}
