package avroio

import (
	"github.com/cloudmere/avro"
)

// ValueDecoder walks a Schema tree and decodes one matching Value
// from a Decoder for each node. Grounded on
// original_source/src/lib.rs's read_value/read_union/read_array/
// read_map/read_fields recursive walk, rewritten against a Schema
// pointer tree instead of a Reference(id) indirection, and decoding
// records into the ordered RecordValue spec.md §3.2 requires instead
// of the original's unordered HashMap.
type ValueDecoder struct {
	dec *Decoder
}

// NewValueDecoder returns a ValueDecoder reading primitives via dec.
func NewValueDecoder(dec *Decoder) *ValueDecoder { return &ValueDecoder{dec: dec} }

// Decode reads one Value matching schema.
func (v *ValueDecoder) Decode(schema avro.Schema) (avro.Value, error) {
	switch s := schema.(type) {
	case *avro.PrimitiveSchema:
		return v.decodePrimitive(s)
	case *avro.ArraySchema:
		return v.decodeArray(s)
	case *avro.MapSchema:
		return v.decodeMap(s)
	case *avro.UnionSchema:
		return v.decodeUnion(s)
	case *avro.EnumSchema:
		return v.decodeEnum(s)
	case *avro.FixedSchema:
		return v.decodeFixed(s)
	case *avro.RecordSchema:
		return v.decodeRecord(s)
	default:
		return nil, avro.E(avro.MalformedData, "unrecognized schema node %T", schema)
	}
}

func (v *ValueDecoder) decodePrimitive(s *avro.PrimitiveSchema) (avro.Value, error) {
	switch s.Kind {
	case avro.Null:
		return avro.NullValue{}, nil
	case avro.Boolean:
		b, err := v.dec.Bool()
		if err != nil {
			return nil, err
		}
		return avro.BoolValue(b), nil
	case avro.Int:
		n, err := v.dec.Int()
		if err != nil {
			return nil, err
		}
		return avro.IntValue(n), nil
	case avro.Long:
		n, err := v.dec.Long()
		if err != nil {
			return nil, err
		}
		return avro.LongValue(n), nil
	case avro.Float:
		f, err := v.dec.Float()
		if err != nil {
			return nil, err
		}
		return avro.FloatValue(f), nil
	case avro.Double:
		f, err := v.dec.Double()
		if err != nil {
			return nil, err
		}
		return avro.DoubleValue(f), nil
	case avro.Bytes:
		b, err := v.dec.Bytes()
		if err != nil {
			return nil, err
		}
		return avro.BytesValue(b), nil
	case avro.String:
		str, err := v.dec.String()
		if err != nil {
			return nil, err
		}
		return avro.StringValue(str), nil
	default:
		return nil, avro.E(avro.MalformedData, "unrecognized primitive kind %v", s.Kind)
	}
}

func (v *ValueDecoder) decodeArray(s *avro.ArraySchema) (avro.Value, error) {
	var out avro.ArrayValue
	for {
		n, err := v.dec.BlockCount()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
		for i := int64(0); i < n; i++ {
			item, err := v.Decode(s.Items)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
	}
}

func (v *ValueDecoder) decodeMap(s *avro.MapSchema) (avro.Value, error) {
	out := &avro.MapValue{}
	for {
		n, err := v.dec.BlockCount()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
		for i := int64(0); i < n; i++ {
			key, err := v.dec.String()
			if err != nil {
				return nil, err
			}
			val, err := v.Decode(s.Values)
			if err != nil {
				return nil, err
			}
			// Last-wins on a repeated key, per spec.
			out.Set(key, val)
		}
	}
}

func (v *ValueDecoder) decodeUnion(s *avro.UnionSchema) (avro.Value, error) {
	idx, err := v.dec.Long()
	if err != nil {
		return nil, err
	}
	if idx < 0 || int(idx) >= len(s.Branches) {
		return nil, avro.E(avro.MalformedData, "union branch index %d out of range [0,%d)", idx, len(s.Branches))
	}
	inner, err := v.Decode(s.Branches[idx])
	if err != nil {
		return nil, err
	}
	return avro.UnionValue{Index: int(idx), Inner: inner}, nil
}

func (v *ValueDecoder) decodeEnum(s *avro.EnumSchema) (avro.Value, error) {
	idx, err := v.dec.Long()
	if err != nil {
		return nil, err
	}
	if idx < 0 || int(idx) >= len(s.Symbols) {
		return nil, avro.E(avro.SchemaErrorKind, avro.InvalidSymbol, avro.Path(s.Fullname()), "enum index %d out of range [0,%d)", idx, len(s.Symbols))
	}
	return avro.EnumValue{Index: int(idx), Symbol: s.Symbols[idx]}, nil
}

func (v *ValueDecoder) decodeFixed(s *avro.FixedSchema) (avro.Value, error) {
	b, err := v.dec.Fixed(s.Size)
	if err != nil {
		return nil, err
	}
	return avro.FixedValue(b), nil
}

func (v *ValueDecoder) decodeRecord(s *avro.RecordSchema) (avro.Value, error) {
	out := make(avro.RecordValue, len(s.Fields))
	for i, f := range s.Fields {
		val, err := v.Decode(f.Type)
		if err != nil {
			return nil, err
		}
		out[i] = avro.RecordField{Name: f.Name, Value: val}
	}
	return out, nil
}
