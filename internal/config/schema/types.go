package schema

// JSON type names accepted in a document's "type" field.
const (
	TypeNameString  = "string"
	TypeNameNumber  = "number"
	TypeNameInteger = "integer"
	TypeNameBoolean = "boolean"
	TypeNameArray   = "array"
	TypeNameObject  = "object"
	TypeNameNull    = "null"
)

// String starts a string schema.
func String() *Builder { return NewBuilder().Type(TypeNameString) }

// Integer starts an integer schema.
func Integer() *Builder { return NewBuilder().Type(TypeNameInteger) }

// Number starts a number schema.
func Number() *Builder { return NewBuilder().Type(TypeNameNumber) }

// Boolean starts a boolean schema.
func Boolean() *Builder { return NewBuilder().Type(TypeNameBoolean) }

// Array starts an array schema.
func Array() *Builder { return NewBuilder().Type(TypeNameArray) }

// Object starts an object schema.
func Object() *Builder { return NewBuilder().Type(TypeNameObject) }

// StringEnum starts a string schema restricted to the given values.
func StringEnum(values ...string) *Builder {
	allowed := make([]any, len(values))
	for i, v := range values {
		allowed[i] = v
	}
	return String().Enum(allowed...)
}

// Builder assembles a Document through chained setters. Schemas that
// guard built-in sections are declared in code rather than parsed from
// JSON, and the fluent form keeps those declarations readable.
type Builder struct {
	d Document
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

// Build returns the assembled document.
func (b *Builder) Build() *Document { return &b.d }

// Title sets the document title, used to attribute validation errors.
func (b *Builder) Title(title string) *Builder { b.d.Title = title; return b }

// Description sets the human-readable description.
func (b *Builder) Description(desc string) *Builder { b.d.Description = desc; return b }

// Type constrains the accepted JSON types.
func (b *Builder) Type(types ...string) *Builder { b.d.Type = Type{Types: types}; return b }

// Default records the default value. Validation does not apply it.
func (b *Builder) Default(value any) *Builder { b.d.Default = value; return b }

// Enum restricts the value to the given set.
func (b *Builder) Enum(values ...any) *Builder { b.d.Enum = values; return b }

// Const pins the value to a single constant.
func (b *Builder) Const(value any) *Builder { b.d.Const = value; return b }

// Minimum sets the inclusive lower bound for numbers.
func (b *Builder) Minimum(v float64) *Builder { b.d.Minimum = ptr(v); return b }

// Maximum sets the inclusive upper bound for numbers.
func (b *Builder) Maximum(v float64) *Builder { b.d.Maximum = ptr(v); return b }

// MultipleOf requires the value to be a multiple of v.
func (b *Builder) MultipleOf(v float64) *Builder { b.d.MultipleOf = ptr(v); return b }

// MinLength sets the minimum string length.
func (b *Builder) MinLength(n int) *Builder { b.d.MinLength = ptr(n); return b }

// MaxLength sets the maximum string length.
func (b *Builder) MaxLength(n int) *Builder { b.d.MaxLength = ptr(n); return b }

// Pattern requires strings to match the regular expression.
func (b *Builder) Pattern(expr string) *Builder { b.d.Pattern = expr; return b }

// MinItems sets the minimum array length.
func (b *Builder) MinItems(n int) *Builder { b.d.MinItems = ptr(n); return b }

// MaxItems sets the maximum array length.
func (b *Builder) MaxItems(n int) *Builder { b.d.MaxItems = ptr(n); return b }

// UniqueItems forbids duplicate array elements.
func (b *Builder) UniqueItems() *Builder { b.d.UniqueItems = true; return b }

// Items sets the schema applied to every array element.
func (b *Builder) Items(doc *Document) *Builder { b.d.Items = doc; return b }

// Property declares an object property and its schema.
func (b *Builder) Property(name string, doc *Document) *Builder {
	if b.d.Properties == nil {
		b.d.Properties = make(map[string]*Document)
	}
	b.d.Properties[name] = doc
	return b
}

// Required marks object properties that must be present.
func (b *Builder) Required(names ...string) *Builder {
	b.d.Required = append(b.d.Required, names...)
	return b
}

// AdditionalProperties controls whether undeclared properties pass.
func (b *Builder) AdditionalProperties(allowed bool) *Builder {
	b.d.AdditionalProperties = &allowed
	return b
}

func ptr[T any](v T) *T { return &v }
