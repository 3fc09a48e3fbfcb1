package attendance

import (
	"context"
)

// AttendanceRepository reads resolved attendance. The engine never writes attendance.
type AttendanceRepository interface {
	// GetByCompanyMonth returns every attendance row of the company for the month, ordered by employee and date.
	GetByCompanyMonth(ctx context.Context, companyID string, month, year int) ([]Attendance, error)
}
