package domain

import "encoding/json"

// StringList is a []string that also accepts a single JSON string (or null)
// when unmarshaling. Receipt submissions frequently carry a lone attribute
// value instead of a list; the single value is wrapped in a one-element list
// and null becomes the empty list. Order is preserved (display order).
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*l = StringList{}
			return nil
		}
		*l = StringList{one}
		return nil
	}
	// Anything else (numbers, objects) degrades to empty rather than failing.
	*l = StringList{}
	return nil
}

// MarshalJSON implements json.Marshaler; a nil list serializes as [].
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}
