package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// StringList holds product images and tags. Legacy rows stored a single
// string instead of a list; those decode as a one-element list.
type StringList []string

// UnmarshalBSONValue accepts both string and array BSON types.
func (s *StringList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*s = nil
		return nil
	case bsontype.Array:
		var values []string
		if err := bson.UnmarshalValue(t, data, &values); err != nil {
			return err
		}
		*s = values
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*s = fromSingle(value)
		return nil
	default:
		return fmt.Errorf("cannot decode %s into StringList", t)
	}
}

// MarshalBSONValue always stores the list as an array.
func (s StringList) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if s == nil {
		return bson.MarshalValue([]string{})
	}
	return bson.MarshalValue([]string(s))
}

// Value stores the list as a jsonb array.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	encoded, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func (s *StringList) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}

	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var values []string
		if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
			return err
		}
		*s = values
		return nil
	}

	*s = fromSingle(trimmed)
	return nil
}

// MarshalJSON never emits null so clients can iterate without a guard.
func (s StringList) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func fromSingle(value string) StringList {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StringList{}
	}
	return StringList{trimmed}
}
