package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

// GetByCompanyMonth implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByCompanyMonth(ctx context.Context, companyID string, month, year int) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	query := `
		SELECT a.id, a.company_id, a.employee_id, a.date, a.status,
			   a.leave_type_id, lt.name AS leave_type_name,
			   COALESCE(a.work_hours_in_minutes, 0)
		FROM attendances a
		LEFT JOIN leave_types lt ON lt.id = a.leave_type_id
		WHERE a.company_id = $1 AND a.date >= $2 AND a.date < $3
		ORDER BY a.employee_id, a.date
	`

	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	records := make([]attendance.Attendance, 0)
	for rows.Next() {
		var (
			a             attendance.Attendance
			rawStatus     string
			leaveTypeID   *string
			leaveTypeName *string
			workMinutes   int
		)
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.EmployeeID, &a.Date, &rawStatus, &leaveTypeID, &leaveTypeName, &workMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}

		status, err := attendance.ParseStatus(rawStatus, deref(leaveTypeID))
		if err != nil {
			return nil, fmt.Errorf("attendance %s: %w", a.ID, err)
		}
		if status.Kind == attendance.StatusLeave && status.LeaveTypeName == "" {
			status.LeaveTypeName = deref(leaveTypeName)
		}
		a.Status = status
		a.WorkingHours = float64(workMinutes) / 60
		records = append(records, a)
	}

	return records, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
