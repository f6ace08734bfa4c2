package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// The legacy schema stored attributes, permissions and option lists as JSON
// text, sometimes double-encoded (a JSON string containing JSON). These types
// normalize that once, at the persistence boundary.

// AttributeMap is a product's free-form key->value attributes.
type AttributeMap map[string]string

func (m AttributeMap) Value() (driver.Value, error) {
	if m == nil {
		m = AttributeMap{}
	}
	return json.Marshal(m)
}

func (m *AttributeMap) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan attributes: %w", err)
	}
	*m = AttributeMap{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, m); err != nil {
		return fmt.Errorf("scan attributes: %w", err)
	}
	return nil
}

// PermissionMap is a role's permission set, keyed by permission name.
type PermissionMap map[string]bool

func (m PermissionMap) Value() (driver.Value, error) {
	if m == nil {
		m = PermissionMap{}
	}
	return json.Marshal(m)
}

func (m *PermissionMap) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan permissions: %w", err)
	}
	*m = PermissionMap{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, m); err != nil {
		return fmt.Errorf("scan permissions: %w", err)
	}
	return nil
}

// StringList is an attribute definition's allowed option values.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan options: %w", err)
	}
	*l = StringList{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, l); err != nil {
		return fmt.Errorf("scan options: %w", err)
	}
	return nil
}

// jsonBytes coerces a driver value into JSON bytes, unwrapping one level of
// string encoding if the stored value is a quoted JSON document.
func jsonBytes(src interface{}) ([]byte, error) {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return nil, fmt.Errorf("unsupported source type %T", src)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err == nil {
			raw = []byte(inner)
		}
	}
	return raw, nil
}
