package access

// Decision is the resolved admin page access for one user. A nil allowed set
// means unrestricted: restriction is opt-in per membership, so absence of any
// explicit page list never limits access.
type Decision struct {
	allowed map[PageKey]struct{}
	order   []PageKey
}

func Unrestricted() Decision {
	return Decision{}
}

// RestrictedTo builds a decision limited to the given keys. Duplicates are
// collapsed; an empty list degrades to Unrestricted.
func RestrictedTo(keys ...PageKey) Decision {
	if len(keys) == 0 {
		return Unrestricted()
	}

	d := Decision{
		allowed: make(map[PageKey]struct{}, len(keys)),
		order:   make([]PageKey, 0, len(keys)),
	}
	for _, key := range keys {
		if _, ok := d.allowed[key]; ok {
			continue
		}
		d.allowed[key] = struct{}{}
	}

	// Keep the canonical key order so redirect targets are deterministic
	// regardless of how memberships were returned by the store.
	for _, key := range PageKeys {
		if _, ok := d.allowed[key]; ok {
			d.order = append(d.order, key)
		}
	}

	return d
}

func (d Decision) IsUnrestricted() bool {
	return d.allowed == nil
}

// Permits reports whether the page key is accessible under this decision.
func (d Decision) Permits(key PageKey) bool {
	if d.IsUnrestricted() {
		return true
	}
	_, ok := d.allowed[key]
	return ok
}

// AllowedKeys returns the restricted set in canonical order, or nil when
// unrestricted.
func (d Decision) AllowedKeys() []PageKey {
	return d.order
}

// FallbackPath is the first allowed page that maps to a known path, used as
// the redirect target when a restricted admin hits a page outside their set.
func (d Decision) FallbackPath() string {
	for _, key := range d.order {
		if path, ok := PathForKey(key); ok {
			return path
		}
	}
	return DashboardPath
}
