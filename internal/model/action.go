package model

// ArgumentList preserves insertion order; some UPnP peers reject a SOAP
// body whose argument elements were reordered, so this cannot be a bare
// map[string]string.
type ArgumentList struct {
	pairs []argPair
	index map[string]int
}

type argPair struct {
	Name  string
	Value string
}

// NewArgumentList returns an empty, ready-to-use ArgumentList.
func NewArgumentList() *ArgumentList {
	return &ArgumentList{index: make(map[string]int)}
}

// Add appends (name, value); if name already exists, its value is updated
// in place and insertion order is left unchanged.
func (a *ArgumentList) Add(name, value string) *ArgumentList {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	if i, ok := a.index[name]; ok {
		a.pairs[i].Value = value
		return a
	}
	a.index[name] = len(a.pairs)
	a.pairs = append(a.pairs, argPair{Name: name, Value: value})
	return a
}

// Get returns the value for name and whether it was present.
func (a *ArgumentList) Get(name string) (string, bool) {
	i, ok := a.index[name]
	if !ok {
		return "", false
	}
	return a.pairs[i].Value, true
}

// Len returns the number of arguments.
func (a *ArgumentList) Len() int { return len(a.pairs) }

// Names returns argument names in insertion order.
func (a *ArgumentList) Names() []string {
	names := make([]string, len(a.pairs))
	for i, p := range a.pairs {
		names[i] = p.Name
	}
	return names
}

// Each invokes fn once per argument in insertion order.
func (a *ArgumentList) Each(fn func(name, value string)) {
	for _, p := range a.pairs {
		fn(p.Name, p.Value)
	}
}

// Action is a single SOAP-serializable action request.
type Action struct {
	Name         string
	URL          string
	ServiceType  ServiceType
	ArgumentList *ArgumentList
}

// NewAction builds an Action with an empty ArgumentList ready for Add calls.
func NewAction(name, url string, st ServiceType) *Action {
	return &Action{Name: name, URL: url, ServiceType: st, ArgumentList: NewArgumentList()}
}
