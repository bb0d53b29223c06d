package middleware

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/terraconstructs/authgate/internal/auth"
)

// Access is the minimum authentication a route requires.
type Access int

const (
	// AccessAuthenticated requires a Principal, optionally holding one of RouteRule.Roles.
	AccessAuthenticated Access = iota
	// AccessPublic admits anonymous requests.
	AccessPublic
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("Access(%d)", int(a))
	}
}

// RouteRule classifies the paths matching Pattern.
//
// Pattern uses casbin keyMatch syntax: a literal path, or a prefix ending in
// "*" ("/api/*" matches "/api/hello" and "/api/v1/x" but not "/api").
type RouteRule struct {
	Pattern string
	Access  Access
	// Roles, when non-empty, requires the principal to hold at least one of them.
	Roles []string
}

// Role codes referenced by the default route table.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// DefaultRouteRules is the gateway's route table. Order matters: the first
// matching rule wins, so /auth/me precedes the public /auth/* catch-all.
func DefaultRouteRules() []RouteRule {
	return []RouteRule{
		{Pattern: "/health", Access: AccessPublic},
		{Pattern: "/auth/me", Access: AccessAuthenticated},
		{Pattern: "/auth/*", Access: AccessPublic},
		{Pattern: "/api/*", Access: AccessAuthenticated},
		{Pattern: "/admin/*", Access: AccessAuthenticated, Roles: []string{RoleAdmin}},
	}
}

// defaultRule applies to paths no rule matches.
var defaultRule = RouteRule{Pattern: "*", Access: AccessAuthenticated}

// roleModel grants a role access to exactly one rule pattern.
const roleModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

// DefaultRouteCacheSize bounds the path → rule memo.
const DefaultRouteCacheSize = 1024

// RouteTable is an ordered, immutable rule list with a role enforcer.
// It is safe for concurrent use.
type RouteTable struct {
	rules    []RouteRule
	cache    *lru.Cache[string, int] // path → rule index, -1 for no match
	enforcer *casbin.SyncedEnforcer
}

// NewRouteTable compiles rules. Role requirements are loaded into a casbin
// enforcer as (role, pattern) policies.
func NewRouteTable(rules []RouteRule, cacheSize int) (*RouteTable, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultRouteCacheSize
	}
	cache, err := lru.New[string, int](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create route cache: %w", err)
	}

	m, err := model.NewModelFromString(roleModel)
	if err != nil {
		return nil, fmt.Errorf("parse route role model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create route role enforcer: %w", err)
	}

	compiled := make([]RouteRule, 0, len(rules))
	for i, rule := range rules {
		if rule.Pattern == "" || !strings.HasPrefix(rule.Pattern, "/") {
			return nil, fmt.Errorf("route rule %d: pattern must start with /, got %q", i, rule.Pattern)
		}
		if rule.Access == AccessPublic && len(rule.Roles) > 0 {
			return nil, fmt.Errorf("route rule %q: public routes cannot require roles", rule.Pattern)
		}
		for _, role := range rule.Roles {
			if _, err := enforcer.AddPolicy(role, rule.Pattern); err != nil {
				return nil, fmt.Errorf("add role policy %s for %s: %w", role, rule.Pattern, err)
			}
		}
		rule.Roles = append([]string(nil), rule.Roles...)
		compiled = append(compiled, rule)
	}

	return &RouteTable{
		rules:    compiled,
		cache:    cache,
		enforcer: enforcer,
	}, nil
}

// Rules returns a copy of the table in match order.
func (t *RouteTable) Rules() []RouteRule {
	return append([]RouteRule(nil), t.rules...)
}

// Match returns the first rule whose pattern matches path. Paths no rule
// matches get a rule requiring authentication.
func (t *RouteTable) Match(path string) RouteRule {
	idx, ok := t.cache.Get(path)
	if !ok {
		idx = -1
		for i, rule := range t.rules {
			if util.KeyMatch(path, rule.Pattern) {
				idx = i
				break
			}
		}
		t.cache.Add(path, idx)
	}
	if idx < 0 {
		return defaultRule
	}
	return t.rules[idx]
}

// Decision is the outcome of authorizing a request against the table.
type Decision int

const (
	Allow Decision = iota
	// DenyUnauthenticated means the route needs a Principal and there is none.
	DenyUnauthenticated
	// DenyForbidden means the Principal lacks every role the route accepts.
	DenyForbidden
)

// Authorize decides whether authn may reach path.
func (t *RouteTable) Authorize(path string, authn auth.Authentication) (Decision, error) {
	rule := t.Match(path)
	if rule.Access == AccessPublic {
		return Allow, nil
	}

	authenticated, ok := authn.(auth.Authenticated)
	if !ok {
		return DenyUnauthenticated, nil
	}
	if len(rule.Roles) == 0 {
		return Allow, nil
	}

	for _, authority := range authenticated.Principal.Authorities() {
		allowed, err := t.enforcer.Enforce(authority, rule.Pattern)
		if err != nil {
			return DenyForbidden, fmt.Errorf("enforce role %s on %s: %w", authority, rule.Pattern, err)
		}
		if allowed {
			return Allow, nil
		}
	}
	return DenyForbidden, nil
}
