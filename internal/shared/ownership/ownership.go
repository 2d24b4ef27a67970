package ownership

// Operation classifies what a principal is trying to do to a resource.
type Operation int

const (
	OpRead Operation = iota
	OpCreate
	OpUpdate
	OpDelete
)

// Write reports whether the operation mutates the resource.
func (op Operation) Write() bool {
	return op != OpRead
}

// Decision is a value, not an error: callers translate Deny into the
// appropriate rejection for their boundary.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// Authorize applies the author-or-read-only policy. Reads are always allowed,
// anonymous writes are always denied, and other writes require the resource's
// owner to match the principal. The ownerID accessor is what varies per
// resource kind (post author vs comment user).
func Authorize[R any](principalID string, op Operation, resource R, ownerID func(R) string) Decision {
	if !op.Write() {
		return Allow
	}
	if principalID == "" {
		return Deny
	}
	if ownerID(resource) != principalID {
		return Deny
	}
	return Allow
}
