package cors

// WildcardOrigin matches any request origin
const WildcardOrigin = "*"

// Match returns the first rule allowing method from origin, or nil
func (c Configuration) Match(origin, method string) *Rule {
	for i := range c {
		if c[i].allowsOrigin(origin) && c[i].allowsMethod(method) {
			return &c[i]
		}
	}
	return nil
}

// Allows reports whether any rule permits the origin and method
func (c Configuration) Allows(origin, method string) bool {
	return c.Match(origin, method) != nil
}

// AllowsOrigin reports whether any rule lists the origin, regardless of method
func (c Configuration) AllowsOrigin(origin string) bool {
	for i := range c {
		if c[i].allowsOrigin(origin) {
			return true
		}
	}
	return false
}

func (r Rule) allowsOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, o := range r.Origins {
		if o == WildcardOrigin || o == origin {
			return true
		}
	}
	return false
}

func (r Rule) allowsMethod(method string) bool {
	for _, m := range r.Methods {
		if m == method {
			return true
		}
	}
	return false
}
