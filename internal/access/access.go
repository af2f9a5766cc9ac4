// Package access holds the role permission matrix consulted before the API
// exposes a mutating affordance. It gates affordances, it is not a security
// boundary: the catalog itself knows nothing about roles.
package access

import (
	"fmt"
	"slices"
	"strings"
)

// Role is a dashboard user type.
type Role string

const (
	MainCenter  Role = "main_center"
	SchoolAdmin Role = "school_admin"
	Teacher     Role = "teacher"
	Student     Role = "student"
)

// Roles lists every role in display order.
var Roles = []Role{MainCenter, SchoolAdmin, Teacher, Student}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Roles, r) {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Checker answers whether an action on a category is allowed.
type Checker interface {
	Allowed(category, action string) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(category, action string) bool

// Allowed calls f.
func (f CheckerFunc) Allowed(category, action string) bool { return f(category, action) }

// AllowAll permits everything. Used when no role is in play.
var AllowAll Checker = CheckerFunc(func(string, string) bool { return true })

// Scope is the slice of the catalog a role may view.
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopePurchased Scope = "purchased"
	ScopeAssigned  Scope = "assigned"
	ScopeEnrolled  Scope = "enrolled"
)

// Rule grants one action on one category to a set of roles.
type Rule struct {
	Category string `json:"category"`
	Action   string `json:"action"`
	Feature  string `json:"feature"`
	Roles    []Role `json:"roles"`
}

// DefaultRules is the dashboard's permission matrix.
var DefaultRules = []Rule{
	{"courses", "view", "View courses", []Role{MainCenter, SchoolAdmin, Teacher, Student}},
	{"courses", "create", "Create courses", []Role{MainCenter}},
	{"courses", "delete", "Delete courses", []Role{MainCenter}},
	{"courses", "edit", "Edit courses", []Role{MainCenter, Teacher}},
	{"modules", "edit", "Edit modules / tasks", []Role{MainCenter}},
	{"exams", "toggle", "Default exam (per module)", []Role{MainCenter}},
	{"exams", "edit", "Final exam edit", []Role{MainCenter, SchoolAdmin, Teacher}},
	{"reports", "view", "View reports", []Role{MainCenter, SchoolAdmin, Teacher}},
	{"marks", "view", "View marks / progress", []Role{MainCenter, SchoolAdmin, Teacher, Student}},
	{"design", "upload", "Upload banners / design", []Role{MainCenter}},
	{"members", "register", "Register teachers / students", []Role{MainCenter, SchoolAdmin}},
	{"members", "edit", "Edit names & roles", []Role{SchoolAdmin}},
	{"classes", "create", "Create & name classes", []Role{SchoolAdmin}},
	{"classes", "assign", "Assign course to class", []Role{SchoolAdmin}},
	{"orders", "approve", "Approve course orders", []Role{MainCenter}},
}

// Matrix evaluates rules for roles.
type Matrix struct {
	rules   []Rule
	granted map[string][]Role
}

// NewMatrix indexes rules. Later rules for the same category and action
// replace earlier ones.
func NewMatrix(rules []Rule) *Matrix {
	m := &Matrix{rules: rules, granted: make(map[string][]Role, len(rules))}
	for _, r := range rules {
		m.granted[ruleKey(r.Category, r.Action)] = r.Roles
	}
	return m
}

// Rules returns the matrix rows.
func (m *Matrix) Rules() []Rule {
	return slices.Clone(m.rules)
}

// Allowed reports whether role may perform action on category. Unknown
// pairs are denied.
func (m *Matrix) Allowed(role Role, category, action string) bool {
	return slices.Contains(m.granted[ruleKey(category, action)], role)
}

// ForRole binds the matrix to one role.
func (m *Matrix) ForRole(role Role) Checker {
	return CheckerFunc(func(category, action string) bool {
		return m.Allowed(role, category, action)
	})
}

// Granted lists the "category:action" pairs a role holds, in rule order.
func (m *Matrix) Granted(role Role) []string {
	var out []string
	for _, r := range m.rules {
		if m.Allowed(role, r.Category, r.Action) {
			out = append(out, ruleKey(r.Category, r.Action))
		}
	}
	return out
}

// ViewScope returns which courses a role sees.
func ViewScope(role Role) Scope {
	switch role {
	case MainCenter:
		return ScopeAll
	case SchoolAdmin:
		return ScopePurchased
	case Teacher:
		return ScopeAssigned
	case Student:
		return ScopeEnrolled
	default:
		return ScopeEnrolled
	}
}

func ruleKey(category, action string) string {
	return category + ":" + action
}
