package models

import "time"

// Result is a student's aggregate for one academic year.
type Result struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	AcademicYear  string    `db:"academic_year" json:"academic_year"`
	TotalMarks    float64   `db:"total_marks" json:"total_marks"`
	MaxTotalMarks float64   `db:"max_total_marks" json:"max_total_marks"`
	Percentage    float64   `db:"percentage" json:"percentage"`
	IsPassed      bool      `db:"is_passed" json:"is_passed"`
	Remarks       string    `db:"remarks" json:"remarks"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectMark records the marks for one subject of a result.
type SubjectMark struct {
	ID              string   `db:"id" json:"id"`
	ResultID        string   `db:"result_id" json:"result_id"`
	SubjectID       string   `db:"subject_id" json:"subject_id"`
	MarksObtained   float64  `db:"marks_obtained" json:"marks_obtained"`
	TheoryMarks     *float64 `db:"theory_marks" json:"theory_marks,omitempty"`
	PracticalMarks  *float64 `db:"practical_marks" json:"practical_marks,omitempty"`
	IsPassed        bool     `db:"is_passed" json:"is_passed"`
	TheoryPassed    *bool    `db:"theory_passed" json:"theory_passed,omitempty"`
	PracticalPassed *bool    `db:"practical_passed" json:"practical_passed,omitempty"`
}

// SubjectMarkDetail joins subject metadata for display.
type SubjectMarkDetail struct {
	SubjectMark
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	SubjectCode  string  `db:"subject_code" json:"subject_code"`
	Position     int     `db:"position" json:"position"`
	IsAdditional bool    `db:"is_additional" json:"is_additional"`
	HasPractical bool    `db:"has_practical" json:"has_practical"`
	MaxMarks     float64 `db:"max_marks" json:"max_marks"`
	PassingMarks float64 `db:"passing_marks" json:"passing_marks"`
}

// ResultDetail is a result with its marks.
type ResultDetail struct {
	Result
	Marks []SubjectMarkDetail `json:"marks"`
}

// ResultRow is a listing row joined with the student.
type ResultRow struct {
	Result
	RollNumber       string `db:"roll_number" json:"roll_number"`
	EnrollmentNumber string `db:"enrollment_number" json:"enrollment_number"`
	StudentName      string `db:"student_name" json:"student_name"`
	ClassID          string `db:"class_id" json:"class_id"`
	ClassName        string `db:"class_name" json:"class_name"`
}

type ResultFilter struct {
	AcademicYear string
	ClassID      string
	Passed       *bool
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// MarkInput is the raw entry for one subject. Single subjects use
// MarksObtained; split subjects use TheoryMarks and PracticalMarks.
type MarkInput struct {
	SubjectID      string   `json:"subject_id" validate:"required"`
	MarksObtained  *float64 `json:"marks_obtained,omitempty" validate:"omitempty,gte=0"`
	TheoryMarks    *float64 `json:"theory_marks,omitempty" validate:"omitempty,gte=0"`
	PracticalMarks *float64 `json:"practical_marks,omitempty" validate:"omitempty,gte=0"`
}
