package dashboard

// DashboardResponse is the combined response for the owner dashboard
type DashboardResponse struct {
	Date           string           `json:"date"` // Format: "YYYY-MM-DD"
	TotalEmployees int64            `json:"total_employees"`
	PresentToday   int64            `json:"present_today"`
	AbsentToday    int64            `json:"absent_today"`
	Weekly         []DailyPresence  `json:"weekly"`
	Departments    []DepartmentStat `json:"departments"`
}

// DailyPresence is one bar of the last-7-days chart
type DailyPresence struct {
	Date    string `json:"date"` // Format: "YYYY-MM-DD"
	Day     string `json:"day"`  // Mon, Tue, ...
	Count   int64  `json:"count"`
	Percent int    `json:"percent"`
}

// DepartmentStat is today's presence within one department
type DepartmentStat struct {
	Name    string `json:"name"`
	Total   int64  `json:"total"`
	Present int64  `json:"present"`
}
