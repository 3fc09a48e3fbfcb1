package auth

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can approve leave and run payroll
	RoleEmployee Role = "employee" // Regular employee
)

// CanManage reports whether the role may change leave and payroll data.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleManager
}

// Claims is the caller identity carried by an access token.
type Claims struct {
	UserID    string
	CompanyID string
	Role      Role
}
