package employee

import (
	"time"
)

// Employee is the slice of the employee master record the payroll and leave
// engine reads. Designation and Department come from the position and
// department masters.
type Employee struct {
	ID               string
	CompanyID        string
	EmployeeCode     string
	FullName         string
	Designation      *string
	Department       *string
	HireDate         time.Time
	EmploymentType   EmploymentType
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentType string

const (
	EmploymentTypePermanent  EmploymentType = "permanent"
	EmploymentTypeProbation  EmploymentType = "probation"
	EmploymentTypeContract   EmploymentType = "contract"
	EmploymentTypeInternship EmploymentType = "internship"
	EmploymentTypeFreelance  EmploymentType = "freelance"
)

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}
