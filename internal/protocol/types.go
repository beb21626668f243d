package protocol

// MaxSetpoint is the upper bound of the actuator setpoint domain.
// Values are range-checked against it before the uint8 cache is
// updated; narrowing never happens first.
const MaxSetpoint = 100

// Kind discriminates incoming commands by their wire `type` tag.
type Kind int

const (
	KindUnknown Kind = iota
	KindSetValue
	KindGetValue
	KindCalibrate
)

func (k Kind) String() string {
	switch k {
	case KindSetValue:
		return "set_value"
	case KindGetValue:
		return "get_value"
	case KindCalibrate:
		return "calibrate"
	default:
		return "unknown"
	}
}

// Command is one parsed controller instruction. ID and Value are
// pointers because field presence matters: the dispatcher treats a
// missing id differently from id 0.
type Command struct {
	Kind  Kind
	ID    *uint32
	Value *uint32
}

// Response is the client->controller reply union. Exactly one of the
// constructors below applies per dispatch; optional fields stay unset
// for the variants that do not carry them.
type Response struct {
	Type    string `json:"type"`
	ID      uint32 `json:"id"`
	OK      *bool  `json:"ok,omitempty"`
	Message string `json:"message,omitempty"`
	Value   *uint8 `json:"value,omitempty"`
}

// NewAck acknowledges a completed command.
func NewAck(id uint32) Response {
	ok := true
	return Response{Type: "ack", ID: id, OK: &ok}
}

// NewError reports recognized-but-invalid input back to the controller.
func NewError(id uint32, message string) Response {
	return Response{Type: "error", ID: id, Message: message}
}

// NewValue reports the cached setpoint.
func NewValue(id uint32, value uint8) Response {
	v := value
	return Response{Type: "value", ID: id, Value: &v}
}

// Register is the client's self-identifying message, sent exactly once
// per new session.
type Register struct {
	Type string `json:"type"`
	UUID string `json:"uuid"`
}
