package utils

import (
	"github.com/casbin/casbin"
)

const (
	RoleReceptionist = "receptionist"
	RoleManager      = "manager"
	RoleAdmin        = "admin"
)

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Managers inherit everything a receptionist may do, admins everything a
// manager may do.
var roleGrants = map[string][][2]string{
	RoleReceptionist: {
		{"rooms", "read"},
		{"reservations", "read"},
		{"reservations", "create"},
		{"reservations", "update"},
		{"reservations", "confirm"},
		{"reservations", "cancel"},
		{"reservations", "check-in"},
		{"reservations", "check-out"},
		{"reservations", "no-show"},
		{"payments", "read"},
		{"payments", "record"},
		{"payments", "settle"},
		{"rooms", "status"},
	},
	RoleManager: {
		{"rooms", "create"},
		{"rooms", "update"},
		{"reservations", "force-status"},
		{"payments", "refund"},
		{"audit", "read"},
	},
	RoleAdmin: {
		{"rooms", "delete"},
	},
}

// Policy decides which staff role may run which operation.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	e, err := casbin.NewEnforcerSafe(casbin.NewModel(policyModel))
	if err != nil {
		return nil, err
	}
	for role, grants := range roleGrants {
		for _, g := range grants {
			e.AddPolicy(role, g[0], g[1])
		}
	}
	e.AddGroupingPolicy(RoleManager, RoleReceptionist)
	e.AddGroupingPolicy(RoleAdmin, RoleManager)
	return &Policy{enforcer: e}, nil
}

func (p *Policy) Allowed(role, obj, act string) bool {
	return p.enforcer.Enforce(role, obj, act)
}
