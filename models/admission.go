package models

// AdmissionRecord is one row of the admissions table. Columns are all
// nullable text; SubmittedAt is stored as a formatted string, not a
// native timestamp, so rows sort and export as displayed.
type AdmissionRecord struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FullName    string `gorm:"column:full_name" json:"full_name"`
	Email       string `gorm:"column:email" json:"email"`
	Phone       string `gorm:"column:phone" json:"phone"`
	Category    string `gorm:"column:category" json:"category"`
	Course      string `gorm:"column:course" json:"course"`
	Address     string `gorm:"column:address" json:"address"`
	Marks       string `gorm:"column:marks" json:"marks"`
	PrevCollege string `gorm:"column:prev_college" json:"prev_college"`
	SubmittedAt string `gorm:"column:submitted_at" json:"submitted_at"`
}

func (AdmissionRecord) TableName() string {
	return "admissions"
}

// AdmissionSubmission is the body of POST /submit-admission. Field names
// match the frontend form payload.
type AdmissionSubmission struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Category    string `json:"category"`
	Course      string `json:"course"`
	Address     string `json:"address"`
	Marks       string `json:"marks"`
	PrevCollege string `json:"prevCollege"`
}
