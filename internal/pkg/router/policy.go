package router

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

// rbacModel matches a role against a route pattern and a method regex.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// NewEnforcer builds an in-memory enforcer from "role, route, methods" rules,
// e.g. "demo, /api/*, GET" or "member, /api/*, (GET|POST|PUT|PATCH|DELETE)".
func NewEnforcer(rules []string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("router: casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("router: casbin enforcer: %w", err)
	}

	for _, rule := range rules {
		parts := strings.Split(rule, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("router: invalid policy %q", rule)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if _, err := e.AddPolicy(parts[0], parts[1], "^"+parts[2]+"$"); err != nil {
			return nil, fmt.Errorf("router: add policy %q: %w", rule, err)
		}
	}

	return e, nil
}
