// Package models defines the business entities exchanged with the API.
// Field names follow the backend's snake_case wire format.
package models

// User represents a logged-in account as returned by OTP verification.
type User struct {
	// ID is the numeric identifier assigned by the backend.
	ID int64 `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Mobile is the 10-digit number used to log in.
	Mobile string `json:"mobile"`
	// Email is optional.
	Email string `json:"email,omitempty"`
	// AuthKey is the opaque per-user key returned alongside the JWT.
	AuthKey string `json:"auth_key"`
}

// Employee is a staff record of the selected company.
type Employee struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	Name        string `json:"name"`
	Mobile      string `json:"mobile"`
	Email       string `json:"email,omitempty"`
	Designation string `json:"designation,omitempty"`
	Salary      int64  `json:"salary,omitempty"`
}

// Company is a business the user manages. The address fields keep the
// backend's names, company_address and zipcode.
type Company struct {
	ID             string `json:"id"`
	CompanyName    string `json:"company_name"`
	GSTNumber      string `json:"gst_number"`
	Email          string `json:"email,omitempty"`
	Mobile         string `json:"mobile,omitempty"`
	CompanyAddress string `json:"company_address,omitempty"`
	Zipcode        string `json:"zipcode,omitempty"`
}

// InvoiceItem is one billed line.
type InvoiceItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	// Rate is in paise.
	Rate int64 `json:"rate"`
}

// Invoice groups billed items for a customer.
type Invoice struct {
	ID           string        `json:"id"`
	CompanyID    string        `json:"company_id"`
	CustomerName string        `json:"customer_name"`
	Items        []InvoiceItem `json:"items"`
	// Total is in paise.
	Total int64 `json:"total"`
}

// Member is a gym member. Image holds the file name relative to the
// image_url prefix the list endpoint returns.
type Member struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Mobile    string `json:"mobile"`
	Plan      string `json:"plan,omitempty"`
	Image     string `json:"image,omitempty"`
}

// AttendanceStatus is the day status of an employee.
type AttendanceStatus string

const (
	// Present marks a full working day.
	Present AttendanceStatus = "present"
	// Absent marks a missed day.
	Absent AttendanceStatus = "absent"
	// HalfDay marks a partial day.
	HalfDay AttendanceStatus = "half_day"
)

// Attendance is one employee's status on one date (YYYY-MM-DD).
type Attendance struct {
	EmployeeID string           `json:"employee_id"`
	Date       string           `json:"date"`
	Status     AttendanceStatus `json:"status"`
}
