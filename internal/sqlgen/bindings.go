package sqlgen

import "fmt"

// Binding is one named bind parameter accompanying the generated SQL
// (spec §6.4 "Uses named bind parameters :name; an accompanying binding
// list is emitted alongside").
type Binding struct {
	Name  string
	Value interface{}
}

// bindingSet accumulates named bindings in first-use order, deduplicating
// by name so a repeated reference (e.g. :mpStart used by several CTEs)
// only appears once in the emitted list.
type bindingSet struct {
	order []string
	byName map[string]interface{}
}

func newBindingSet() *bindingSet {
	return &bindingSet{byName: map[string]interface{}{}}
}

// put registers value under name, appending a numeric suffix if name is
// already bound to a different value, and returns the bind-parameter token
// (":name" or ":name2") to embed in SQL text.
func (b *bindingSet) put(name string, value interface{}) string {
	if existing, ok := b.byName[name]; ok {
		if fmt.Sprint(existing) == fmt.Sprint(value) {
			return ":" + name
		}
		suffixed := name
		for i := 2; ; i++ {
			suffixed = fmt.Sprintf("%s%d", name, i)
			if _, taken := b.byName[suffixed]; !taken {
				break
			}
		}
		b.byName[suffixed] = value
		b.order = append(b.order, suffixed)
		return ":" + suffixed
	}
	b.byName[name] = value
	b.order = append(b.order, name)
	return ":" + name
}

func (b *bindingSet) list() []Binding {
	out := make([]Binding, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, Binding{Name: name, Value: b.byName[name]})
	}
	return out
}
