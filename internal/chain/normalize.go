package chain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotTime is a normalized range bound. At most one field is set.
type SlotTime struct {
	Slot   *uint64
	UnixTS *int64
}

func (s SlotTime) IsZero() bool {
	return s.Slot == nil && s.UnixTS == nil
}

// NormalizeError reports a bound that is neither a slot number nor an RFC 3339 time.
type NormalizeError struct {
	Value string
	Err   error
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("invalid slot or time %q: %v", e.Value, e.Err)
}

func (e *NormalizeError) Unwrap() error {
	return e.Err
}

// NormalizeSlotTime interprets a user-supplied bound. Digits only is a slot,
// anything else must be RFC 3339 with an explicit offset. Blank input yields a zero SlotTime.
func NormalizeSlotTime(input string) (SlotTime, error) {
	value := strings.TrimSpace(input)
	if value == "" {
		return SlotTime{}, nil
	}

	if isNumeric(value) {
		slot, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return SlotTime{}, &NormalizeError{Value: input, Err: err}
		}
		return SlotTime{Slot: &slot}, nil
	}

	tm, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return SlotTime{}, &NormalizeError{Value: input, Err: err}
	}
	ts := tm.Unix()
	return SlotTime{UnixTS: &ts}, nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
