package validator

// Registry holds rules keyed by rule key. All returns them in registration
// order so findings are reported deterministically.
type Registry struct {
	rules map[string]Rule
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule. A rule with the same key replaces the earlier one.
func (r *Registry) Register(rule Rule) {
	if _, ok := r.rules[rule.Key()]; !ok {
		r.order = append(r.order, rule.Key())
	}
	r.rules[rule.Key()] = rule
}

// Get returns the rule for key, or nil if not found.
func (r *Registry) Get(key string) Rule {
	return r.rules[key]
}

// All returns all registered rules.
func (r *Registry) All() []Rule {
	out := make([]Rule, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.rules[k])
	}
	return out
}
