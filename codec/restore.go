package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Key encodes a snapshot as compact JSON. Two equal snapshots always
// produce the same key.
func Key(s Snapshot) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	return string(data), nil
}

// Compact normalizes an engine-produced record into key form without
// dropping fields the Snapshot type does not model.
func Compact(raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("compacting snapshot: %w", err)
	}
	return buf.String(), nil
}

// Decode parses a key back into a snapshot.
func Decode(key string) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal([]byte(key), &s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return s, nil
}

// RestoreScript builds the single engine instruction that replaces the
// current battle with payload and asks the engine to issue fresh requests.
// The payload travels base64 encoded so no quoting of the record is needed.
func RestoreScript(payload []byte) string {
	encoded := base64.StdEncoding.EncodeToString(payload)
	return ">eval (() => { " +
		`const State = require("./state").State; ` +
		`const restored = State.deserializeBattle(JSON.parse(Buffer.from("` + encoded + `", "base64").toString())); ` +
		"restored.send = battle.send; " +
		"this.battle = restored; " +
		"restored.sentRequests = false; " +
		"restored.makeRequest(); " +
		"})()"
}

// Handle is the part of an engine a restore needs.
type Handle interface {
	// Send writes one instruction line.
	Send(line string) error
	// AwaitRequests consumes output until one request per side has been
	// seen.
	AwaitRequests() error
}

// Restore sends exactly one restore instruction for payload and waits for
// the engine to issue a request to each side.
func Restore(h Handle, payload []byte) error {
	if err := h.Send(RestoreScript(payload)); err != nil {
		return err
	}
	return h.AwaitRequests()
}
