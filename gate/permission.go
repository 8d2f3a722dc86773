package gate

import "strings"

// Permission represents an allowed action on a resource type.
// Format: "resource:action" where resource is "service.entity" or a bare
// entity (e.g. "project.senior_user:update", "health_plan:list").
type Permission string

// NewPermission creates a permission from resource type and action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType string, action Action) {
	parts := strings.SplitN(string(p), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], Action(parts[1])
}

// Wildcards for super permissions
const (
	WildcardAll          = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// Matches checks if this permission matches a requested permission.
//
//	"*:*"                 matches everything
//	"project.*:update"    matches update on every project entity
//	"project.senior_user:*" matches every action on project.senior_user
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	if string(act) != WildcardAll && act != reqAct {
		return false
	}
	if res == reqRes || res == WildcardAll {
		return true
	}
	if svc, ok := strings.CutSuffix(res, "."+WildcardAll); ok {
		return strings.HasPrefix(reqRes, svc+".")
	}
	return false
}
