package gate

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// Service is the access-control service an entity belongs to.
type Service string

const (
	ServiceProject  Service = "project"
	ServicePlatform Service = "platform"
)

// Access names one operation on one entity of a service, e.g.
// {project, senior_user, update}.
type Access struct {
	Service Service
	Entity  string
	Action  Action
}

// Resource returns the "<service>.<entity>" resource type of the access.
// An empty service yields the bare entity name.
func (a Access) Resource() string {
	return Resource(a.Service, a.Entity)
}

// Permission returns the permission required for the access.
func (a Access) Permission() Permission {
	return NewPermission(a.Resource(), a.Action)
}

func (a Access) String() string {
	return string(a.Permission())
}

// Resource joins a service and an entity into a resource type.
func Resource(service Service, entity string) string {
	if service == "" {
		return entity
	}
	return string(service) + "." + entity
}
