package service

import "github.com/seedplatform/control-interface/internal/model"

// HasPermission reports whether a permission set grants the named
// permission. With no object id, exactly one grant of the type must
// exist; with one, the grant for that specific object must exist.
func HasPermission(permissions []model.Permission, permType string, objectID *int64) bool {
	var ids []int64
	for _, p := range permissions {
		if p.Type == permType {
			ids = append(ids, p.ObjectID)
		}
	}
	if objectID == nil {
		return len(ids) == 1
	}
	for _, id := range ids {
		if id == *objectID {
			return true
		}
	}
	return false
}
