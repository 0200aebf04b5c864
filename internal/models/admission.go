package models

import "time"

// EnquiryStatus tracks follow-up on an admission enquiry.
type EnquiryStatus string

const (
	EnquiryStatusNew       EnquiryStatus = "NEW"
	EnquiryStatusContacted EnquiryStatus = "CONTACTED"
	EnquiryStatusClosed    EnquiryStatus = "CLOSED"
)

func (s EnquiryStatus) Valid() bool {
	switch s {
	case EnquiryStatusNew, EnquiryStatusContacted, EnquiryStatusClosed:
		return true
	}
	return false
}

// AdmissionEnquiry is submitted from the public admissions page.
type AdmissionEnquiry struct {
	ID            string        `db:"id" json:"id"`
	StudentName   string        `db:"student_name" json:"student_name"`
	ParentName    string        `db:"parent_name" json:"parent_name"`
	Email         string        `db:"email" json:"email"`
	Phone         string        `db:"phone" json:"phone"`
	GradeApplying string        `db:"grade_applying" json:"grade_applying"`
	Message       string        `db:"message" json:"message"`
	Status        EnquiryStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

type AdmissionFilter struct {
	Status   EnquiryStatus
	Search   string
	Page     int
	PageSize int
}
