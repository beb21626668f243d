package protocol

import (
	"encoding/json"
	"fmt"
)

// wireCommand mirrors the controller's incoming JSON shape. Absent
// fields decode to nil, which is how presence survives into Command.
type wireCommand struct {
	Type  string  `json:"type"`
	ID    *uint32 `json:"id"`
	Value *uint32 `json:"value"`
}

// ParseCommand decodes one complete line. A line that is not a JSON
// object, or whose numeric fields do not fit u32, fails with
// ErrMalformed; an unrecognized `type` parses fine and comes back as
// KindUnknown so the caller can drop it without feedback.
func ParseCommand(line string) (Command, error) {
	var w wireCommand
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	cmd := Command{ID: w.ID, Value: w.Value}
	switch w.Type {
	case "set_value":
		cmd.Kind = KindSetValue
	case "get_value":
		cmd.Kind = KindGetValue
	case "calibrate":
		cmd.Kind = KindCalibrate
	default:
		cmd.Kind = KindUnknown
	}
	return cmd, nil
}
