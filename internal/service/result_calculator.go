package service

import (
	"fmt"
	"math"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

// ResultTotals are the aggregate figures of a computed result.
type ResultTotals struct {
	TotalMarks    float64 `json:"total_marks"`
	MaxTotalMarks float64 `json:"max_total_marks"`
	Percentage    float64 `json:"percentage"`
	IsPassed      bool    `json:"is_passed"`
}

// Computation is the outcome of ComputeResult. Marks follow the order of
// the subjects passed in.
type Computation struct {
	Marks  []models.SubjectMark
	Totals ResultTotals
}

// ApplicableSubjects returns the class subjects a student is examined in:
// every core subject plus the additional subjects the student opted into.
func ApplicableSubjects(subjects []models.Subject, student models.Student) []models.Subject {
	applicable := make([]models.Subject, 0, len(subjects))
	for _, subject := range subjects {
		if subject.IsAdditional && !student.OptsInto(subject.ID) {
			continue
		}
		applicable = append(applicable, subject)
	}
	return applicable
}

// ComputeResult validates marks against the class subjects and derives
// per-subject pass flags and result totals. Every applicable subject needs
// exactly one entry; entries for other subjects are rejected.
func ComputeResult(subjects []models.Subject, student models.Student, inputs []models.MarkInput) (*Computation, error) {
	bySubject := make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		bySubject[subject.ID] = subject
	}

	entries := make(map[string]models.MarkInput, len(inputs))
	for _, input := range inputs {
		subject, ok := bySubject[input.SubjectID]
		if !ok {
			return nil, markError("subject %s does not belong to the student's class", input.SubjectID)
		}
		if subject.IsAdditional && !student.OptsInto(subject.ID) {
			return nil, markError("student has not opted into additional subject %s", subject.Code)
		}
		if _, dup := entries[input.SubjectID]; dup {
			return nil, markError("duplicate marks for subject %s", subject.Code)
		}
		entries[input.SubjectID] = input
	}

	applicable := ApplicableSubjects(subjects, student)
	comp := &Computation{Marks: make([]models.SubjectMark, 0, len(applicable)), Totals: ResultTotals{IsPassed: true}}
	for _, subject := range applicable {
		input, ok := entries[subject.ID]
		if !ok {
			return nil, markError("marks missing for subject %s", subject.Code)
		}
		mark, err := scoreSubject(subject, input)
		if err != nil {
			return nil, err
		}
		comp.Marks = append(comp.Marks, mark)
		comp.Totals.TotalMarks += mark.MarksObtained
		comp.Totals.MaxTotalMarks += subject.MaxMarks
		if !mark.IsPassed {
			comp.Totals.IsPassed = false
		}
	}
	comp.Totals.TotalMarks = round2(comp.Totals.TotalMarks)
	comp.Totals.MaxTotalMarks = round2(comp.Totals.MaxTotalMarks)
	comp.Totals.Percentage = Percentage(comp.Totals.TotalMarks, comp.Totals.MaxTotalMarks)
	return comp, nil
}

// Percentage returns total/max expressed out of 100 and rounded to two
// decimals. A zero max yields zero.
func Percentage(total, maxTotal float64) float64 {
	if maxTotal <= 0 {
		return 0
	}
	return round2(total / maxTotal * 100)
}

func scoreSubject(subject models.Subject, input models.MarkInput) (models.SubjectMark, error) {
	mark := models.SubjectMark{SubjectID: subject.ID}

	if !subject.HasPractical {
		if input.TheoryMarks != nil || input.PracticalMarks != nil {
			return mark, markError("subject %s is not split into theory and practical", subject.Code)
		}
		if input.MarksObtained == nil {
			return mark, markError("marks missing for subject %s", subject.Code)
		}
		obtained := *input.MarksObtained
		if err := checkRange(subject.Code, "marks", obtained, subject.MaxMarks); err != nil {
			return mark, err
		}
		mark.MarksObtained = obtained
		mark.IsPassed = obtained >= subject.PassingMarks
		return mark, nil
	}

	if input.TheoryMarks == nil || input.PracticalMarks == nil {
		return mark, markError("theory and practical marks are both required for subject %s", subject.Code)
	}
	theory, practical := *input.TheoryMarks, *input.PracticalMarks
	if err := checkRange(subject.Code, "theory marks", theory, subject.TheoryMax()); err != nil {
		return mark, err
	}
	if err := checkRange(subject.Code, "practical marks", practical, subject.PracticalMax()); err != nil {
		return mark, err
	}
	if input.MarksObtained != nil && round2(*input.MarksObtained) != round2(theory+practical) {
		return mark, markError("marks for subject %s must equal theory plus practical", subject.Code)
	}

	theoryPassed := theory >= subject.TheoryPassing()
	practicalPassed := practical >= subject.PracticalPassing()
	mark.TheoryMarks = &theory
	mark.PracticalMarks = &practical
	mark.MarksObtained = round2(theory + practical)
	mark.TheoryPassed = &theoryPassed
	mark.PracticalPassed = &practicalPassed
	mark.IsPassed = theoryPassed && practicalPassed
	return mark, nil
}

func checkRange(code, label string, value, maxMarks float64) error {
	if math.IsNaN(value) || value < 0 || value > maxMarks {
		return markError("%s for subject %s must be between 0 and %s", label, code, formatMarks(maxMarks))
	}
	return nil
}

func markError(format string, args ...interface{}) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf(format, args...))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatMarks prints marks without trailing zeros.
func formatMarks(v float64) string {
	return fmt.Sprintf("%g", round2(v))
}
