package avro

import (
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

// validSymbol matches an Avro enum symbol: spec.md §3.1/§4.2 requires
// [A-Za-z_][A-Za-z0-9_]*, the same production the original spec uses
// for names.
var validSymbol = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseSchema parses an Avro schema JSON document into a Schema tree.
// Named types are registered in a fresh Context; a reference to a
// named type is returned as the same Go pointer that was reserved
// when the named type's name was first seen, so self-referential and
// forward-referential schemas resolve correctly in a single pass.
//
// Grounded on original_source/src/schema.rs's SchemaType::parse: the
// dispatch on bare-string vs. {"type": ...} object vs. array, and the
// reserve-before-parsing-fields protocol for records, are carried
// over unchanged; the Reference(NamedTypeId) indirection is replaced
// with direct pointer identity via Context.
func ParseSchema(data []byte) (Schema, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, E(SchemaErrorKind, InvalidAttribute, err)
	}
	ctx := NewContext()
	return parseType(raw, ctx, "")
}

func parseType(raw interface{}, ctx *Context, enclosingNamespace string) (Schema, error) {
	switch v := raw.(type) {
	case string:
		return matchTypename(v, ctx, enclosingNamespace)
	case map[string]interface{}:
		typ, ok := v["type"]
		if !ok {
			return nil, E(SchemaErrorKind, MissingAttribute, Path("type"))
		}
		typeName, ok := typ.(string)
		if !ok {
			return nil, E(SchemaErrorKind, InvalidAttribute, Path("type"))
		}
		switch typeName {
		case "array":
			return parseArray(v, ctx, enclosingNamespace)
		case "map":
			return parseMap(v, ctx, enclosingNamespace)
		case "fixed":
			return parseFixed(v, ctx, enclosingNamespace)
		case "enum":
			return parseEnum(v, ctx, enclosingNamespace)
		case "record":
			return parseRecord(v, ctx, enclosingNamespace)
		default:
			return matchTypename(typeName, ctx, enclosingNamespace)
		}
	case []interface{}:
		return parseUnion(v, ctx, enclosingNamespace)
	default:
		return nil, E(SchemaErrorKind, InvalidAttribute, "schema node must be a string, object, or array")
	}
}

func matchTypename(name string, ctx *Context, enclosingNamespace string) (Schema, error) {
	switch name {
	case "null":
		return &PrimitiveSchema{Null}, nil
	case "boolean":
		return &PrimitiveSchema{Boolean}, nil
	case "int":
		return &PrimitiveSchema{Int}, nil
	case "long":
		return &PrimitiveSchema{Long}, nil
	case "float":
		return &PrimitiveSchema{Float}, nil
	case "double":
		return &PrimitiveSchema{Double}, nil
	case "bytes":
		return &PrimitiveSchema{Bytes}, nil
	case "string":
		return &PrimitiveSchema{String}, nil
	default:
		full := buildFullname(name, enclosingNamespace)
		s, ok := ctx.lookup(full)
		if !ok {
			hint := suggestNamedType(full, ctx.names())
			if hint != "" {
				return nil, E(SchemaErrorKind, UnknownNamedType, Path(full), "unknown type %q (did you mean %q?)", full, hint)
			}
			return nil, E(SchemaErrorKind, UnknownNamedType, Path(full), "unknown type %q", full)
		}
		return s, nil
	}
}

func buildFullname(name, enclosingNamespace string) string {
	if strings.Contains(name, ".") {
		return name
	}
	if enclosingNamespace == "" {
		return name
	}
	return enclosingNamespace + "." + name
}

func splitNamespace(full string) string {
	i := strings.LastIndex(full, ".")
	if i < 0 {
		return ""
	}
	return full[:i]
}

func parseArray(v map[string]interface{}, ctx *Context, ns string) (Schema, error) {
	items, ok := v["items"]
	if !ok {
		return nil, E(SchemaErrorKind, MissingAttribute, Path("items"))
	}
	itemSchema, err := parseType(items, ctx, ns)
	if err != nil {
		return nil, err
	}
	return &ArraySchema{Items: itemSchema}, nil
}

func parseMap(v map[string]interface{}, ctx *Context, ns string) (Schema, error) {
	values, ok := v["values"]
	if !ok {
		return nil, E(SchemaErrorKind, MissingAttribute, Path("values"))
	}
	valSchema, err := parseType(values, ctx, ns)
	if err != nil {
		return nil, err
	}
	return &MapSchema{Values: valSchema}, nil
}

func namedAttrs(v map[string]interface{}, enclosingNamespace string) (name, namespace, full string, err error) {
	nameAttr, ok := v["name"]
	if !ok {
		return "", "", "", E(SchemaErrorKind, MissingAttribute, Path("name"))
	}
	name, ok = nameAttr.(string)
	if !ok {
		return "", "", "", E(SchemaErrorKind, InvalidAttribute, Path("name"))
	}
	namespace = enclosingNamespace
	if ns, ok := v["namespace"].(string); ok {
		namespace = ns
	}
	if strings.Contains(name, ".") {
		full = name
		namespace = splitNamespace(full)
	} else {
		full = buildFullname(name, namespace)
	}
	return name, namespace, full, nil
}

func parseFixed(v map[string]interface{}, ctx *Context, ns string) (Schema, error) {
	name, namespace, full, err := namedAttrs(v, ns)
	if err != nil {
		return nil, err
	}
	sizeAttr, ok := v["size"]
	if !ok {
		return nil, E(SchemaErrorKind, MissingAttribute, Path(full+".size"))
	}
	sizeF, ok := sizeAttr.(float64)
	if !ok || sizeF < 0 {
		return nil, E(SchemaErrorKind, InvalidAttribute, Path(full+".size"))
	}
	f := &FixedSchema{Namespace: namespace, Name: name, Size: int(sizeF)}
	if err := ctx.reserve(full, f); err != nil {
		return nil, err
	}
	return f, nil
}

func parseEnum(v map[string]interface{}, ctx *Context, ns string) (Schema, error) {
	name, namespace, full, err := namedAttrs(v, ns)
	if err != nil {
		return nil, err
	}
	symsAttr, ok := v["symbols"]
	if !ok {
		return nil, E(SchemaErrorKind, MissingAttribute, Path(full+".symbols"))
	}
	symsRaw, ok := symsAttr.([]interface{})
	if !ok {
		return nil, E(SchemaErrorKind, InvalidAttribute, Path(full+".symbols"))
	}
	symbols := make([]string, len(symsRaw))
	seen := make(map[string]bool, len(symsRaw))
	var errs []error
	for i, s := range symsRaw {
		sym, ok := s.(string)
		if !ok {
			return nil, E(SchemaErrorKind, InvalidSymbol, Path(full))
		}
		if !validSymbol.MatchString(sym) {
			errs = append(errs, E(SchemaErrorKind, InvalidSymbol, Path(full), "invalid symbol %q", sym))
			continue
		}
		if seen[sym] {
			errs = append(errs, E(SchemaErrorKind, InvalidSymbol, Path(full), "duplicate symbol %q", sym))
			continue
		}
		seen[sym] = true
		symbols[i] = sym
	}
	if len(errs) > 0 {
		return nil, Combine(errs...)
	}
	e := &EnumSchema{Namespace: namespace, Name: name, Symbols: symbols}
	if err := ctx.reserve(full, e); err != nil {
		return nil, err
	}
	return e, nil
}

func parseRecord(v map[string]interface{}, ctx *Context, ns string) (Schema, error) {
	name, namespace, full, err := namedAttrs(v, ns)
	if err != nil {
		return nil, err
	}
	r := &RecordSchema{Namespace: namespace, Name: name}
	// Reserve before parsing fields so a field that refers back to
	// this record's own name resolves to this same pointer.
	if err := ctx.reserve(full, r); err != nil {
		return nil, err
	}
	fieldsAttr, ok := v["fields"]
	if !ok {
		return nil, E(SchemaErrorKind, MissingAttribute, Path(full+".fields"))
	}
	fieldsRaw, ok := fieldsAttr.([]interface{})
	if !ok {
		return nil, E(SchemaErrorKind, InvalidAttribute, Path(full+".fields"))
	}
	fields := make([]Field, len(fieldsRaw))
	seen := make(map[string]bool, len(fieldsRaw))
	var errs []error
	for i, fr := range fieldsRaw {
		fm, ok := fr.(map[string]interface{})
		if !ok {
			errs = append(errs, E(SchemaErrorKind, InvalidAttribute, Path(full+".fields")))
			continue
		}
		fname, ok := fm["name"].(string)
		if !ok {
			errs = append(errs, E(SchemaErrorKind, MissingAttribute, Path(full+".fields[].name")))
			continue
		}
		if seen[fname] {
			errs = append(errs, E(SchemaErrorKind, InvalidAttribute, Path(full+"."+fname), "duplicate field name %q", fname))
			continue
		}
		seen[fname] = true
		ftypeAttr, ok := fm["type"]
		if !ok {
			errs = append(errs, E(SchemaErrorKind, MissingAttribute, Path(full+"."+fname+".type")))
			continue
		}
		ftype, err := parseType(ftypeAttr, ctx, namespace)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fields[i] = Field{Name: fname, Type: ftype}
	}
	if len(errs) > 0 {
		return nil, Combine(errs...)
	}
	r.Fields = fields
	return r, nil
}

func parseUnion(v []interface{}, ctx *Context, ns string) (Schema, error) {
	branches := make([]Schema, len(v))
	seenKinds := make(map[string]bool, len(v))
	for i, b := range v {
		s, err := parseType(b, ctx, ns)
		if err != nil {
			return nil, err
		}
		if _, ok := s.(*UnionSchema); ok {
			return nil, E(SchemaErrorKind, InvalidUnion, "union may not directly contain another union")
		}
		key := unionBranchKey(s)
		if seenKinds[key] {
			return nil, E(SchemaErrorKind, InvalidUnion, "union has more than one %q branch", key)
		}
		seenKinds[key] = true
		branches[i] = s
	}
	return &UnionSchema{Branches: branches}, nil
}

// unionBranchKey returns the identity Avro uses to reject ambiguous
// unions: primitive kind name, "array", "map", or a named type's
// fullname (two distinct records may coexist in one union; two
// anonymous arrays may not).
func unionBranchKey(s Schema) string {
	switch t := s.(type) {
	case *PrimitiveSchema:
		return t.Kind.String()
	case *ArraySchema:
		return "array"
	case *MapSchema:
		return "map"
	default:
		full, _ := namedFullname(s)
		return "named:" + full
	}
}
