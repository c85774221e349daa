package engine

import "strings"

// Kind is the structural meaning of one engine output line.
type Kind int

const (
	// KindNarration is any line no other kind claims.
	KindNarration Kind = iota
	// KindFraming marks the update/sideupdate/end envelope lines and the bare
	// side id that follows a sideupdate.
	KindFraming
	// KindEmpty is a line with an empty tag, such as "||message".
	KindEmpty
	// KindIgnorable is a tag with no bearing on the battle state.
	KindIgnorable
	KindRequest
	KindWin
	KindTie
	KindError
	KindBigError
	// KindEvalResult carries the value of an eval instruction.
	KindEvalResult
)

var kindNames = map[Kind]string{
	KindNarration:  "narration",
	KindFraming:    "framing",
	KindEmpty:      "empty",
	KindIgnorable:  "ignorable",
	KindRequest:    "request",
	KindWin:        "win",
	KindTie:        "tie",
	KindError:      "error",
	KindBigError:   "bigerror",
	KindEvalResult: "eval",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Structural reports whether lines of this kind drive the protocol rather
// than describe the battle.
func (k Kind) Structural() bool {
	switch k {
	case KindFraming, KindRequest, KindWin, KindTie, KindError, KindBigError, KindEvalResult:
		return true
	default:
		return false
	}
}

const evalResultPrefix = "||<<< "

var framing = map[string]bool{
	"update":     true,
	"sideupdate": true,
	"end":        true,
	"p1":         true,
	"p2":         true,
	"p3":         true,
	"p4":         true,
}

var ignorable = map[string]bool{
	"t:":          true,
	"j":           true,
	"J":           true,
	"join":        true,
	"l":           true,
	"L":           true,
	"leave":       true,
	"n":           true,
	"N":           true,
	"c":           true,
	"c:":          true,
	"chat":        true,
	"raw":         true,
	"html":        true,
	"uhtml":       true,
	"uhtmlchange": true,
	"inactive":    true,
	"inactiveoff": true,
	"timestamp":   true,
	"badge":       true,
	"title":       true,
	"gen":         true,
	"gametype":    true,
	"tier":        true,
	"rule":        true,
	"rated":       true,
	"teamsize":    true,
	"clearpoke":   true,
	"teampreview": true,
	"player":      true,
	"split":       true,
	"upkeep":      true,
	"showteam":    true,
	"sentchoice":  true,
}

// Message is one classified output line.
type Message struct {
	Kind Kind
	Tag  string
	Args []string
	Raw  string
}

// Body returns everything after the tag, unsplit. Request and eval payloads
// may themselves contain the separator.
func (m Message) Body() string {
	if m.Kind == KindEvalResult {
		return strings.TrimPrefix(m.Raw, evalResultPrefix)
	}
	prefix := "|" + m.Tag + "|"
	if !strings.HasPrefix(m.Raw, prefix) {
		return ""
	}
	return m.Raw[len(prefix):]
}

// Classify assigns a kind to one output line. Every line gets exactly one
// kind; anything unrecognized is narration.
func Classify(line string) Message {
	raw := strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(raw)
	if framing[trimmed] {
		return Message{Kind: KindFraming, Tag: trimmed, Raw: raw}
	}
	if !strings.HasPrefix(raw, "|") {
		return Message{Kind: KindNarration, Raw: raw}
	}
	if strings.HasPrefix(raw, evalResultPrefix) {
		return Message{Kind: KindEvalResult, Raw: raw}
	}

	parts := strings.Split(raw[1:], "|")
	msg := Message{Tag: parts[0], Args: parts[1:], Raw: raw}
	switch {
	case msg.Tag == "":
		msg.Kind = KindEmpty
	case msg.Tag == "request":
		msg.Kind = KindRequest
	case msg.Tag == "win":
		msg.Kind = KindWin
	case msg.Tag == "tie":
		msg.Kind = KindTie
	case msg.Tag == "error":
		msg.Kind = KindError
	case msg.Tag == "bigerror":
		msg.Kind = KindBigError
	case ignorable[msg.Tag]:
		msg.Kind = KindIgnorable
	default:
		msg.Kind = KindNarration
	}
	return msg
}
