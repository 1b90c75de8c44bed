package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an identifier that may be a legacy numeric id or a v5 uuid.
// It accepts both JSON numbers and strings and writes canonical numeric ids
// back as numbers. Other strings, such as "007", stay strings.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsNumeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// IsNumeric reports whether the id is a legacy numeric id in canonical
// decimal form: no sign, no leading zeros.
func (id ID) IsNumeric() bool {
	_, ok := id.Int64()
	return ok
}

// Int64 returns the numeric value of a legacy id.
func (id ID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != string(id) {
		return 0, false
	}
	return n, true
}

func (id ID) String() string { return string(id) }

// IDFromInt formats a legacy numeric id.
func IDFromInt(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}
