package inspector

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleInspector Role = "inspector"
	RoleAdmin     Role = "admin"
)

// Inspector is a yard worker account. Name is the display name stamped
// into checklist answers as answeredBy, so it must stay stable once the
// inspector has answered anything.
type Inspector struct {
	ID             uuid.UUID
	Name           string
	Email          string
	PasswordHashed string
	Role           Role
	IsActive       bool
	// MustChangePassword is set on admin-created accounts and cleared
	// once the inspector picks their own password
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsAdmin reports whether the inspector has admin privileges
func (i *Inspector) IsAdmin() bool {
	return i.Role == RoleAdmin
}
