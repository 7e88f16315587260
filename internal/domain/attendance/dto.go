package attendance

import (
	"mime/multipart"
	"strings"
	"time"

	"github.com/geopunch/attendance-backend/internal/pkg/validator"
)

// PageSize is the fixed page size of the owner punch list.
const PageSize = 10

// ========================================
// PUNCH DTOs
// ========================================

type PunchRequest struct {
	EmployeeID string                `json:"-"`
	Type       PunchType             `json:"type"`
	Latitude   float64               `json:"latitude"`
	Longitude  float64               `json:"longitude"`
	File       multipart.File        `json:"-"`
	FileHeader *multipart.FileHeader `json:"-"`
}

func (r *PunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	r.Type = PunchType(strings.ToUpper(string(r.Type)))
	if !r.Type.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: IN, OUT",
		})
	}

	if r.Latitude < -90 || r.Latitude > 90 {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude < -180 || r.Longitude > 180 {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if r.FileHeader == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "punch proof photo is required",
		})
	} else {
		filename := r.FileHeader.Filename
		ext := ""
		if i := strings.LastIndex(filename, "."); i >= 0 {
			ext = strings.ToLower(filename[i:])
		}
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			errs = append(errs, validator.ValidationError{
				Field:   "photo",
				Message: "invalid file type: only jpg, jpeg, png allowed",
			})
		} else if r.FileHeader.Size > 10<<20 { // 10MB
			errs = append(errs, validator.ValidationError{
				Field:   "photo",
				Message: "punch proof photo size must not exceed 10MB",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type PunchResponse struct {
	ID           string   `json:"id"`
	EmployeeID   string   `json:"employee_id"`
	EmployeeName string   `json:"employee_name,omitempty"`
	EmployeeCode string   `json:"employee_code,omitempty"`
	Department   *string  `json:"department,omitempty"`
	Designation  *string  `json:"designation,omitempty"`
	Type         string   `json:"type"`
	PunchTime    string   `json:"punch_time"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	PhotoURL     *string  `json:"photo_url,omitempty"`
	MapURL       *string  `json:"map_url,omitempty"`
	Place        *string  `json:"place,omitempty"`
}

// PunchFilter filters the owner punch list. "ALL" means no filter for
// department and designation.
type PunchFilter struct {
	From         *string `json:"from,omitempty"` // YYYY-MM-DD
	To           *string `json:"to,omitempty"`   // YYYY-MM-DD
	EmployeeName *string `json:"employee_name,omitempty"`
	EmployeeCode *string `json:"employee_code,omitempty"`
	Department   *string `json:"department,omitempty"`
	Designation  *string `json:"designation,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"-"`
}

func (f *PunchFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	f.Limit = PageSize

	errs = append(errs, validateDateRange(f.From, f.To)...)

	f.Department = dropAll(f.Department)
	f.Designation = dropAll(f.Designation)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type MyPunchFilter struct {
	From *string `json:"from,omitempty"` // YYYY-MM-DD
	To   *string `json:"to,omitempty"`   // YYYY-MM-DD

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *MyPunchFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	errs = append(errs, validateDateRange(f.From, f.To)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListPunchResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Showing    string          `json:"showing"`
	Punches    []PunchResponse `json:"punches"`
}

// ========================================
// MAP DTOs
// ========================================

type MapMarker struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	EmployeeCode string  `json:"employee_code"`
	Type         string  `json:"type"`
	PunchTime    string  `json:"punch_time"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Color        string  `json:"color"`
	PhotoURL     *string `json:"photo_url,omitempty"`
}

type MapBounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

type MapResponse struct {
	Markers    []MapMarker `json:"markers"`
	Bounds     *MapBounds  `json:"bounds,omitempty"`
	CenterLat  float64     `json:"center_lat"`
	CenterLng  float64     `json:"center_lng"`
	Zoom       int         `json:"zoom,omitempty"`        // set for a single marker
	SpanMeters float64     `json:"span_meters,omitempty"` // diagonal of Bounds
}

// ========================================
// EXPORT DTOs
// ========================================

type ExportLayout string

const (
	// LayoutA: Name, Code, Date, Type, Time
	LayoutA ExportLayout = "A"
	// LayoutB: Date, Name, Department, Type, Time
	LayoutB ExportLayout = "B"
)

type ExportRequest struct {
	Layout ExportLayout `json:"layout"`
	Format string       `json:"format"` // xlsx, csv
	From   string       `json:"from"`   // YYYY-MM-DD
	To     string       `json:"to"`     // YYYY-MM-DD
}

func (r *ExportRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Layout = ExportLayout(strings.TrimPrefix(strings.ToUpper(string(r.Layout)), "FORMAT_"))
	if r.Layout == "" {
		r.Layout = LayoutA
	}
	if r.Layout != LayoutA && r.Layout != LayoutB {
		errs = append(errs, validator.ValidationError{
			Field:   "layout",
			Message: "layout must be one of: A, B",
		})
	}

	r.Format = strings.ToLower(r.Format)
	if r.Format == "" {
		r.Format = "xlsx"
	}
	if !validator.IsInSlice(r.Format, []string{"xlsx", "csv"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "format",
			Message: "format must be one of: xlsx, csv",
		})
	}

	if validator.IsEmpty(r.From) {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from is required",
		})
	}
	if validator.IsEmpty(r.To) {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to is required",
		})
	}
	if len(errs) == 0 {
		errs = append(errs, validateDateRange(&r.From, &r.To)...)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ExportResult is a rendered file ready to be written to the client.
type ExportResult struct {
	Filename       string
	ContentType    string
	Format         string
	Data           []byte
	SkippedPunches int
}

func validateDateRange(from, to *string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	var fromDate, toDate time.Time
	fromValid, toValid := false, false

	if from != nil && *from != "" {
		if fromDate, fromValid = validator.IsValidDate(*from); !fromValid {
			errs = append(errs, validator.ValidationError{
				Field:   "from",
				Message: "from must be in YYYY-MM-DD format",
			})
		}
	}

	if to != nil && *to != "" {
		if toDate, toValid = validator.IsValidDate(*to); !toValid {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "to must be in YYYY-MM-DD format",
			})
		}
	}

	if fromValid && toValid && toDate.Before(fromDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must not be before from",
		})
	}

	return errs
}

func dropAll(s *string) *string {
	if s == nil || *s == "" || *s == "ALL" {
		return nil
	}
	return s
}
