package model

// ServiceVariable is a single state-variable value plus its ordered XML
// attributes (used by the LastChange schema, e.g. val="...").
type ServiceVariable struct {
	Name       string
	Value      string
	Attributes *ArgumentList
}

// NewServiceVariable builds a ServiceVariable with a single "val" attribute
// set to value, matching the LastChange convention
// <VarName val="value"/>.
func NewServiceVariable(name, value string) ServiceVariable {
	return ServiceVariable{
		Name:       name,
		Value:      value,
		Attributes: NewArgumentList().Add("val", value),
	}
}

// WithAttribute returns a copy of v with an additional (name, value)
// attribute appended in insertion order.
func (v ServiceVariable) WithAttribute(name, value string) ServiceVariable {
	attrs := NewArgumentList()
	if v.Attributes != nil {
		v.Attributes.Each(func(n, val string) { attrs.Add(n, val) })
	}
	attrs.Add(name, value)
	v.Attributes = attrs
	return v
}
