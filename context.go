package avro

import "sync"

// Context is a registry of named types encountered while parsing one
// schema tree. It is the mechanism that makes self-reference and
// forward reference work: a named type is reserved under its
// fullname as soon as its name is known, before its body (fields,
// symbols, size) has been parsed, so a reference appearing inside
// that body resolves to the same pointer the caller will eventually
// finish populating. This mirrors the teacher's own
// addTypeWithLock/AddType dedup-by-identity registry, adapted to a
// two-phase reserve/complete protocol because Avro schemas (unlike
// the teacher's wire-typed values) are parsed from a single JSON
// document in one pass.
type Context struct {
	mu    sync.Mutex
	named map[string]Schema
	order []string
}

// NewContext returns an empty named-type registry.
func NewContext() *Context {
	return &Context{named: make(map[string]Schema)}
}

// reserve registers fullname against an empty, not-yet-populated
// pointer (a fresh *RecordSchema, *EnumSchema, or *FixedSchema) so
// that self-references inside its own definition resolve to it. It
// fails if fullname is already registered.
func (c *Context) reserve(fullname string, s Schema) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.named[fullname]; ok {
		return E(SchemaErrorKind, DuplicateNamedType, Path(fullname))
	}
	c.named[fullname] = s
	c.order = append(c.order, fullname)
	return nil
}

// lookup resolves fullname to its registered schema, or reports ok=false.
func (c *Context) lookup(fullname string) (Schema, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.named[fullname]
	return s, ok
}

// names returns every registered fullname, for building "did you
// mean" suggestions on an UnknownNamedType error.
func (c *Context) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
