package protocol

import (
	"encoding/json"
	"strings"
)

// EncodeResponse serializes one response as a single LF-terminated
// line, ready for a transport write.
func EncodeResponse(r Response) ([]byte, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(payload, '\n'), nil
}

// EncodeRegister builds the LF-terminated register line for the given
// identity token.
func EncodeRegister(uuid string) ([]byte, error) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return nil, ErrUUIDRequired
	}
	payload, err := json.Marshal(Register{Type: "register", UUID: uuid})
	if err != nil {
		return nil, err
	}
	return append(payload, '\n'), nil
}
