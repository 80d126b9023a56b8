package auth

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Permission mirrors a role's permission row for one module.
type Permission struct {
	Role      string
	Module    string
	CanView   bool
	CanCreate bool
	CanEdit   bool
	CanDelete bool
}

func (p Permission) actions() []string {
	var actions []string

	if p.CanView {
		actions = append(actions, "read")
	}

	if p.CanCreate {
		actions = append(actions, "create")
	}

	if p.CanEdit {
		actions = append(actions, "update")
	}

	if p.CanDelete {
		actions = append(actions, "delete")
	}

	return actions
}

func DefaultPermissions() []Permission {
	return []Permission{
		{Role: "admin", Module: "rooms", CanView: true, CanCreate: true, CanEdit: true, CanDelete: true},
		{Role: "admin", Module: "reservations", CanView: true, CanCreate: true, CanEdit: true, CanDelete: true},
		{Role: "receptionist", Module: "rooms", CanView: true, CanCreate: false, CanEdit: false, CanDelete: false},
		{Role: "receptionist", Module: "reservations", CanView: true, CanCreate: true, CanEdit: true, CanDelete: false},
		{Role: "housekeeping", Module: "rooms", CanView: true, CanCreate: false, CanEdit: true, CanDelete: false},
	}
}

// Enforcer answers whether the role carried by the context may act on a module.
type Enforcer struct {
	e *casbin.SyncedEnforcer
}

func New(permissions []Permission) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	for _, permission := range permissions {
		for _, action := range permission.actions() {
			if _, err := e.AddPolicy(permission.Role, permission.Module, action); err != nil {
				return nil, fmt.Errorf("add policy %v %v %v: %w", permission.Role, permission.Module, action, err)
			}
		}
	}

	return &Enforcer{e: e}, nil
}

func (a *Enforcer) Allowed(ctx context.Context, module, action string) (bool, error) {
	role, ok := RoleFromContext(ctx)
	if !ok {
		return false, nil
	}

	allowed, err := a.e.Enforce(role, module, action)
	if err != nil {
		return false, fmt.Errorf("enforce %v %v %v: %w", role, module, action, err)
	}

	return allowed, nil
}
