package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is an amount in MAD. It is stored as Decimal128 in MongoDB and as
// numeric in PostgreSQL, and always serialized to JSON as a number.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func MoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f)}
}

func MoneyFromInt(i int64) Money {
	return Money{Decimal: decimal.NewFromInt(i)}
}

func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Decimal: d}, nil
}

func (m Money) Add(other Money) Money {
	return Money{Decimal: m.Decimal.Add(other.Decimal)}
}

// Times multiplies a unit price by an item quantity.
func (m Money) Times(quantity int) Money {
	return Money{Decimal: m.Decimal.Mul(decimal.NewFromInt(int64(quantity)))}
}

func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

// MarshalJSON writes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// UnmarshalBSONValue accepts Decimal128 as well as the double, integer and string
// encodings older documents were written with.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.Null, bsontype.Undefined:
		*m = Money{}
		return nil
	case bsontype.Decimal128:
		d128, ok := raw.Decimal128OK()
		if !ok {
			return fmt.Errorf("invalid decimal128 money value")
		}
		parsed, err := decimal.NewFromString(d128.String())
		if err != nil {
			return err
		}
		*m = Money{Decimal: parsed}
		return nil
	case bsontype.Double:
		f, ok := raw.DoubleOK()
		if !ok {
			return fmt.Errorf("invalid double money value")
		}
		*m = MoneyFromFloat(f)
		return nil
	case bsontype.Int32:
		i, ok := raw.Int32OK()
		if !ok {
			return fmt.Errorf("invalid int32 money value")
		}
		*m = MoneyFromInt(int64(i))
		return nil
	case bsontype.Int64:
		i, ok := raw.Int64OK()
		if !ok {
			return fmt.Errorf("invalid int64 money value")
		}
		*m = MoneyFromInt(i)
		return nil
	case bsontype.String:
		s, ok := raw.StringValueOK()
		if !ok {
			return fmt.Errorf("invalid string money value")
		}
		parsed, err := ParseMoney(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	default:
		return fmt.Errorf("cannot decode %s into Money", t)
	}
}

// MarshalBSONValue stores the amount as Decimal128.
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.Decimal.String())
	if err != nil {
		return 0, nil, err
	}
	return bson.MarshalValue(d128)
}
