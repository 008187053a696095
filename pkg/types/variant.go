package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Variant is one color option of a product.
type Variant struct {
	Color string `json:"color"`
	Image string `json:"image"`
}

// Variants stores the ordered variant list inside a JSONB column.
type Variants []Variant

// Value serializes the variants to JSON.
func (v Variants) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]Variant(v))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes JSONB into the variant list.
func (v *Variants) Scan(value interface{}) error {
	if value == nil {
		*v = Variants{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded []Variant
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*v = decoded
	return nil
}

// StringList stores a list of strings inside a JSONB column.
type StringList []string

// Value serializes the list to JSON.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes JSONB into the list.
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded []string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*s = decoded
	return nil
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
