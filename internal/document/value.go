package document

import (
	"slices"
	"strconv"
)

// Kind is the value kind of an appearance property.
type Kind string

const (
	KindColor  Kind = "color"
	KindNumber Kind = "number"
	KindText   Kind = "text"
	KindBool   Kind = "bool"
	KindChoice Kind = "choice"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindColor, KindNumber, KindText, KindBool, KindChoice:
		return true
	}
	return false
}

// Value is a typed property value. Color, text and choice values live in Text.
type Value struct {
	Kind   Kind
	Number float64
	Text   string
	Bool   bool
}

func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }
func Text(s string) Value    { return Value{Kind: KindText, Text: s} }
func Color(s string) Value   { return Value{Kind: KindColor, Text: s} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Choice(s string) Value  { return Value{Kind: KindChoice, Text: s} }

// Raw returns the Go value carried by v.
func (v Value) Raw() any {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindBool:
		return v.Bool
	default:
		return v.Text
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

// Property is a single keyed appearance value.
type Property struct {
	Key   string
	Value Value
}

// Properties is an insertion-ordered set of properties. The zero value is an
// empty set. Methods never modify the receiver.
type Properties struct {
	items []Property
}

// NewProperties builds a set from items; a repeated key overwrites the value
// but keeps the position of its first occurrence.
func NewProperties(items ...Property) Properties {
	var p Properties
	for _, it := range items {
		p = p.Set(it.Key, it.Value)
	}
	return p
}

func (p Properties) Len() int { return len(p.items) }

func (p Properties) index(key string) int {
	return slices.IndexFunc(p.items, func(it Property) bool { return it.Key == key })
}

// Get returns the value stored under key.
func (p Properties) Get(key string) (Value, bool) {
	if i := p.index(key); i >= 0 {
		return p.items[i].Value, true
	}
	return Value{}, false
}

// Set returns a copy with key set to v.
func (p Properties) Set(key string, v Value) Properties {
	items := slices.Clone(p.items)
	if i := p.index(key); i >= 0 {
		items[i].Value = v
	} else {
		items = append(items, Property{Key: key, Value: v})
	}
	return Properties{items: items}
}

// Delete returns a copy without key.
func (p Properties) Delete(key string) Properties {
	i := p.index(key)
	if i < 0 {
		return p
	}
	return Properties{items: slices.Delete(slices.Clone(p.items), i, i+1)}
}

// All returns the properties in insertion order.
func (p Properties) All() []Property {
	return slices.Clone(p.items)
}

// Keys returns the property keys in insertion order.
func (p Properties) Keys() []string {
	keys := make([]string, len(p.items))
	for i, it := range p.items {
		keys[i] = it.Key
	}
	return keys
}

// Equal compares keys, values and order.
func (p Properties) Equal(other Properties) bool {
	return slices.Equal(p.items, other.items)
}
