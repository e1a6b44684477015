package fifo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Side tells whether a transaction opens or closes lots.
type Side int

const (
	// Buy acquires a new lot.
	Buy Side = iota + 1
	// Sell disposes of the oldest open lots first.
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide parses a string into a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown side: %q", s)
	}
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v, err := ParseSide(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
