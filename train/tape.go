package train

import (
	"encoding/json"
	"fmt"
	"io"
)

// TapeVersion is bumped whenever the serialized layout changes.
const TapeVersion = 1

// Tape is the serialized history of a training run: the run shape plus the
// evaluation checkpoints taken along the way. It round-trips through JSON so
// runs can be compared or re-plotted offline.
type Tape struct {
	TapeVersion int          `json:"tape_version"`
	Agent       string       `json:"agent"`
	Episodes    int          `json:"episodes"`
	Checkpoints []Checkpoint `json:"checkpoints,omitempty"`
}

// Checkpoint records the schedules and the frozen-policy evaluation at one
// point of the run.
type Checkpoint struct {
	Episode int     `json:"episode"`
	Alpha   float64 `json:"alpha"`
	Epsilon float64 `json:"epsilon"`
	Report  Report  `json:"report"`
}

// Save writes the tape as indented JSON.
func (t *Tape) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// LoadTape reads a tape back, rejecting unknown versions.
func LoadTape(r io.Reader) (*Tape, error) {
	var t Tape
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode tape: %w", err)
	}
	if t.TapeVersion != TapeVersion {
		return nil, fmt.Errorf("unsupported tape version %d (want %d)", t.TapeVersion, TapeVersion)
	}
	return &t, nil
}
