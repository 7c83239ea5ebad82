package avro

// Value is a decoded Avro datum. It is one of the variants below,
// tagged by Go concrete type the same way Schema is, so a decoder
// result can be switched on directly.
type Value interface{ isValue() }

type NullValue struct{}

func (NullValue) isValue() {}

type BoolValue bool

func (BoolValue) isValue() {}

type IntValue int32

func (IntValue) isValue() {}

type LongValue int64

func (LongValue) isValue() {}

type FloatValue float32

func (FloatValue) isValue() {}

type DoubleValue float64

func (DoubleValue) isValue() {}

type BytesValue []byte

func (BytesValue) isValue() {}

type StringValue string

func (StringValue) isValue() {}

type ArrayValue []Value

func (ArrayValue) isValue() {}

// MapValue preserves insertion order; Keys[i] corresponds to
// Values[i]. A repeated key overwrites the earlier entry's value in
// place (last-wins) without disturbing the positions of other keys.
type MapValue struct {
	Keys   []string
	Values []Value
}

func (*MapValue) isValue() {}

// Set inserts or, on a repeated key, overwrites key's value in place
// (last-wins) without disturbing the positions of other keys.
func (m *MapValue) Set(key string, v Value) {
	for i, k := range m.Keys {
		if k == key {
			m.Values[i] = v
			return
		}
	}
	m.Keys = append(m.Keys, key)
	m.Values = append(m.Values, v)
}

type FixedValue []byte

func (FixedValue) isValue() {}

// EnumValue carries both the decoded symbol index and its resolved
// name, so a caller can work with either without re-consulting the
// schema.
type EnumValue struct {
	Index  int
	Symbol string
}

func (EnumValue) isValue() {}

// RecordField is one (name, value) pair of a decoded record, in the
// field declaration order of the record's schema.
type RecordField struct {
	Name  string
	Value Value
}

// RecordValue is an ordered sequence of fields, matching spec §3.2's
// field-order-preserved requirement (the original source this was
// distilled from loses that order by building an unordered map; this
// does not repeat that shortcut).
type RecordValue []RecordField

func (RecordValue) isValue() {}

// UnionValue carries the chosen branch's index into the schema's
// Branches slice along with the decoded inner value.
type UnionValue struct {
	Index int
	Inner Value
}

func (UnionValue) isValue() {}
