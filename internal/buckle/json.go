package buckle

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes a component using its canonical human syntax so
// stored records and wire payloads stay human-readable.
func (c Component) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a component from its canonical human syntax.
func (c *Component) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseComponent(s)
	if !ok {
		return fmt.Errorf("buckle: invalid component syntax %q", s)
	}
	*c = parsed
	return nil
}

// MarshalJSON encodes a label using its canonical "secrecy,integrity" syntax.
func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a label from its canonical syntax.
func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := Parse(s)
	if !ok {
		return fmt.Errorf("buckle: invalid label syntax %q", s)
	}
	*l = parsed
	return nil
}
