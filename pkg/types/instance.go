package types

// Instance is one stored record of an entity. Values maps attribute and
// relation names to values. An instance does not know its entity.
type Instance struct {
	ID     int64            `json:"id"`
	Values map[string]Value `json:"values"`
}

// NewInstance returns an instance holding a copy of values.
func NewInstance(id int64, values map[string]Value) Instance {
	return Instance{ID: id, Values: copyValues(values)}
}

// Get returns the value stored under name.
func (i Instance) Get(name string) (Value, bool) {
	v, ok := i.Values[name]
	return v, ok
}

// Set stores v under name, allocating the value map when needed.
func (i *Instance) Set(name string, v Value) {
	if i.Values == nil {
		i.Values = make(map[string]Value)
	}
	i.Values[name] = v
}

// Delete removes name from the instance values.
func (i *Instance) Delete(name string) {
	delete(i.Values, name)
}

// Rename moves the value stored under from to to. It reports whether from
// was present. An existing value under to is replaced.
func (i *Instance) Rename(from, to string) bool {
	v, ok := i.Values[from]
	if !ok {
		return false
	}
	delete(i.Values, from)
	i.Set(to, v)
	return true
}

// Clone returns a deep copy of the instance.
func (i Instance) Clone() Instance {
	return Instance{ID: i.ID, Values: copyValues(i.Values)}
}

func copyValues(values map[string]Value) map[string]Value {
	out := make(map[string]Value, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
