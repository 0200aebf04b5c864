package models

import (
	"time"

	"github.com/lib/pq"
)

// Student is enrolled in one class for one academic year. Roll and
// enrollment numbers are each unique within the academic year.
type Student struct {
	ID                   string         `db:"id" json:"id"`
	RollNumber           string         `db:"roll_number" json:"roll_number"`
	EnrollmentNumber     string         `db:"enrollment_number" json:"enrollment_number"`
	Name                 string         `db:"name" json:"name"`
	FatherName           string         `db:"father_name" json:"father_name"`
	MotherName           string         `db:"mother_name" json:"mother_name"`
	DateOfBirth          Date           `db:"date_of_birth" json:"date_of_birth"`
	ClassID              string         `db:"class_id" json:"class_id"`
	AcademicYear         string         `db:"academic_year" json:"academic_year"`
	AdditionalSubjectIDs pq.StringArray `db:"additional_subject_ids" json:"additional_subject_ids"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// StudentDetail adds the class name for listings.
type StudentDetail struct {
	Student
	ClassName string `db:"class_name" json:"class_name"`
}

type StudentFilter struct {
	AcademicYear string
	ClassID      string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// OptsInto reports whether the student chose the additional subject.
func (s Student) OptsInto(subjectID string) bool {
	for _, id := range s.AdditionalSubjectIDs {
		if id == subjectID {
			return true
		}
	}
	return false
}
