// internal/tools/httpx/flexible_types.go
package httpx

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleString handles JSON fields that can be a string, []string or null.
// httpx forks disagree on the type of webserver and header values.
type FlexibleString struct {
	value string
}

// UnmarshalJSON implements json.Unmarshaler.
func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		fs.value = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		fs.value = s
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		fs.value = strings.Join(arr, ", ")
		return nil
	}

	return fmt.Errorf("FlexibleString: cannot unmarshal %s", string(data))
}

// MarshalJSON implements json.Marshaler.
func (fs FlexibleString) MarshalJSON() ([]byte, error) {
	return json.Marshal(fs.value)
}

// String returns the string value.
func (fs FlexibleString) String() string {
	return fs.value
}

// FlexibleInt handles JSON fields that can be a number, a numeric string or null.
type FlexibleInt struct {
	value int
}

// UnmarshalJSON implements json.Unmarshaler.
func (fi *FlexibleInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		fi.value = 0
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		v, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return fmt.Errorf("FlexibleInt: cannot parse %s", n)
		}
		fi.value = int(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			fi.value = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("FlexibleInt: cannot parse string %q as int", s)
		}
		fi.value = v
		return nil
	}

	return fmt.Errorf("FlexibleInt: cannot unmarshal %s", string(data))
}

// MarshalJSON implements json.Marshaler.
func (fi FlexibleInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(fi.value)
}

// Int returns the int value.
func (fi FlexibleInt) Int() int {
	return fi.value
}
