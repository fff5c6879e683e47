package domain

type Role string

const (
	RoleCompany Role = "company"
	RoleMSME    Role = "msme"
)

func (r Role) Valid() bool {
	return r == RoleCompany || r == RoleMSME
}

// Caller is the authenticated identity passed explicitly into every operation.
type Caller struct {
	ID          string
	Role        Role
	Name        string
	CompanyName string
	Location    string
}

func (c Caller) IsCompany() bool {
	return c.Role == RoleCompany
}

func (c Caller) IsMSME() bool {
	return c.Role == RoleMSME
}

// DisplayCompany falls back to the personal name when no company is set.
func (c Caller) DisplayCompany() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.Name
}
