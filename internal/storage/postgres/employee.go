package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/triiJU/linkedin-insights/internal/domain"
)

type EmployeeStore struct {
	db *sqlx.DB
}

func NewEmployeeStore(db *sqlx.DB) *EmployeeStore {
	return &EmployeeStore{db: db}
}

// ReplaceForPage deletes and reinserts the employee set for a page.
// Must run inside the sync transaction so readers never see a mixed
// generation.
func (s *EmployeeStore) ReplaceForPage(ctx context.Context, pageID string, employees []domain.Employee) error {
	ex := GetExecutor(ctx, s.db)

	if _, err := ex.ExecContext(ctx, `DELETE FROM employees WHERE page_id = $1`, pageID); err != nil {
		return err
	}
	if len(employees) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO employees (employee_id, page_id, name, title, headline, profile_url, profile_picture_url) VALUES `)
	args := make([]interface{}, 0, len(employees)*7)

	for i, emp := range employees {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < 7; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$" + strconv.Itoa(i*7+j+1))
		}
		sb.WriteString(")")
		args = append(args, emp.EmployeeID, pageID, emp.Name, emp.Title, emp.Headline, emp.ProfileURL, emp.ProfilePictureURL)
	}

	_, err := ex.ExecContext(ctx, sb.String(), args...)
	return err
}

func (s *EmployeeStore) ListByPage(ctx context.Context, pageID string) ([]domain.Employee, error) {
	query := `
		SELECT id, employee_id, page_id, name, title, headline, profile_url, profile_picture_url
		FROM employees
		WHERE page_id = $1
		ORDER BY id`

	var employees []domain.Employee
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &employees, query, pageID)
	return employees, err
}

func (s *EmployeeStore) CountByPage(ctx context.Context, pageID string) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count,
		`SELECT COUNT(*) FROM employees WHERE page_id = $1`, pageID)
	return count, err
}
