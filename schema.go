package avro

// Schema is the parsed form of an Avro schema. It is one of the seven
// variants below; callers switch on the concrete type the same way
// the decoder does.
type Schema interface {
	// Fullname returns the schema's fully-qualified name for named
	// variants (Record, Enum, Fixed), and "" for every other variant.
	Fullname() string
}

// PrimitiveKind enumerates Avro's eight primitive types.
type PrimitiveKind int

const (
	Null PrimitiveKind = iota
	Boolean
	Int
	Long
	Float
	Double
	Bytes
	String
)

func (k PrimitiveKind) String() string {
	switch k {
	case Null:
		return "null"
	case Boolean:
		return "boolean"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Bytes:
		return "bytes"
	case String:
		return "string"
	}
	return "unknown"
}

// PrimitiveSchema is one of Avro's primitive types.
type PrimitiveSchema struct {
	Kind PrimitiveKind
}

func (p *PrimitiveSchema) Fullname() string { return "" }

// ArraySchema describes a variable-length sequence of Items.
type ArraySchema struct {
	Items Schema
}

func (a *ArraySchema) Fullname() string { return "" }

// MapSchema describes a string-keyed map of Values.
type MapSchema struct {
	Values Schema
}

func (m *MapSchema) Fullname() string { return "" }

// FixedSchema is a named, fixed-length byte sequence.
type FixedSchema struct {
	Namespace string
	Name      string
	Size       int
}

func (f *FixedSchema) Fullname() string { return fullname(f.Namespace, f.Name) }

// EnumSchema is a named type with an ordered set of symbols.
type EnumSchema struct {
	Namespace string
	Name      string
	Symbols   []string
}

func (e *EnumSchema) Fullname() string { return fullname(e.Namespace, e.Name) }

// Field is one named, typed member of a RecordSchema, in declaration
// order.
type Field struct {
	Name string
	Type Schema
}

// RecordSchema is a named type with an ordered sequence of Fields. A
// record may be self-referential: a Field's Type may be this same
// *RecordSchema pointer, reached through Context's named-type
// registry rather than a separate reference variant.
type RecordSchema struct {
	Namespace string
	Name      string
	Fields    []Field
}

func (r *RecordSchema) Fullname() string { return fullname(r.Namespace, r.Name) }

// UnionSchema is an ordered list of branch schemas. Avro forbids two
// branches of the same "kind" (two of one primitive, two arrays, two
// maps, or two named types with the same fullname - distinct named
// types are fine), which parseUnion enforces at parse time.
type UnionSchema struct {
	Branches []Schema
}

func (u *UnionSchema) Fullname() string { return "" }

func fullname(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// namedFullname reports whether s is one of the three named variants,
// returning its fullname if so.
func namedFullname(s Schema) (string, bool) {
	switch s.(type) {
	case *RecordSchema, *EnumSchema, *FixedSchema:
		return s.Fullname(), true
	}
	return "", false
}
