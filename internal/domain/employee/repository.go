package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	// GetForSession loads an employee by ID without company scope; the
	// refresh-token flow only knows the employee ID.
	GetForSession(ctx context.Context, id string) (Employee, error)
	GetByEmployeeCode(ctx context.Context, companyID string, employeeCode string) (Employee, error)
	ExistsByCode(ctx context.Context, companyID string, employeeCode string, excludeID *string) (bool, error)
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	Update(ctx context.Context, id string, companyID string, req UpdateEmployeeRequest, passwordHash *string) error
	SoftDelete(ctx context.Context, id string, companyID string) error
	List(ctx context.Context, filter EmployeeFilter, companyID string) ([]Employee, int64, error)

	// ListActive returns active employees ordered by name
	ListActive(ctx context.Context, companyID string) ([]Employee, error)

	// FilterOptions returns the distinct non-empty departments and designations
	FilterOptions(ctx context.Context, companyID string) (FilterOptionsResponse, error)
}
