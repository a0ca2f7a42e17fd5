// Package policy provides ownership-based scoping for contractor resources.
// Every authenticated query path is scoped by contractor id; the public
// (token-gated) surface bypasses ownership entirely because the token itself
// is the credential.
package policy

// Ownable is an interface for resources that have an owner.
// Implement this on models to enable ownership checks.
type Ownable interface {
	GetUserID() uint
}

// Owns reports whether the contractor owns the resource. A nil resource is
// denied: handlers must load the record (already scoped by user_id) before
// acting on it.
func Owns(userID uint, resource Ownable) bool {
	if resource == nil || userID == 0 {
		return false
	}
	return resource.GetUserID() == userID
}
