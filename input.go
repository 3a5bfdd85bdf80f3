package main

import "strings"

// InputState is the full set of movement keys a player is holding
type InputState struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Binary input message: [0x01, flags]
const (
	binaryInputTag = 0x01
	binaryInputLen = 2

	flagUp    = 0x01
	flagDown  = 0x02
	flagLeft  = 0x04
	flagRight = 0x08
)

// InputFromKeys builds a snapshot from a browser held-keys map. Key names are
// matched case-insensitively; unknown keys are ignored.
func InputFromKeys(keys map[string]bool) InputState {
	var in InputState
	for k, held := range keys {
		if !held {
			continue
		}
		switch strings.ToLower(k) {
		case "w", "up", "arrowup":
			in.Up = true
		case "s", "down", "arrowdown":
			in.Down = true
		case "a", "left", "arrowleft":
			in.Left = true
		case "d", "right", "arrowright":
			in.Right = true
		}
	}
	return in
}

// DecodeBinaryInput parses the compact binary form. ok is false when msg is
// not a binary input message.
func DecodeBinaryInput(msg []byte) (InputState, bool) {
	if len(msg) != binaryInputLen || msg[0] != binaryInputTag {
		return InputState{}, false
	}
	flags := msg[1]
	return InputState{
		Up:    flags&flagUp != 0,
		Down:  flags&flagDown != 0,
		Left:  flags&flagLeft != 0,
		Right: flags&flagRight != 0,
	}, true
}

// EncodeBinary is the inverse of DecodeBinaryInput
func (in InputState) EncodeBinary() []byte {
	var flags byte
	if in.Up {
		flags |= flagUp
	}
	if in.Down {
		flags |= flagDown
	}
	if in.Left {
		flags |= flagLeft
	}
	if in.Right {
		flags |= flagRight
	}
	return []byte{binaryInputTag, flags}
}
