package models

// Attendance statuses.
const (
	AttendancePresent = "присутствовал"
	AttendanceAbsent  = "отсутствовал"
)

// Grade limits.
const (
	MinGrade = 2
	MaxGrade = 5
)

// Grade is a mark for a student in a subject on a date.
type Grade struct {
	ID          int64  `db:"grade_id" json:"grade_id"`
	StudentID   int64  `db:"student_id" json:"student_id"`
	SubjectID   int64  `db:"subject_id" json:"subject_id"`
	Grade       int    `db:"grade" json:"grade"`
	Date        Date   `db:"date" json:"date"`
	SubjectName string `db:"subject_name" json:"subject_name,omitempty"`
	StudentName string `db:"student_name" json:"student_name,omitempty"`
}

// Attendance records presence of a student on a date.
type Attendance struct {
	ID          int64  `db:"attendance_id" json:"attendance_id"`
	StudentID   int64  `db:"student_id" json:"student_id"`
	Date        Date   `db:"date" json:"date"`
	Status      string `db:"status" json:"status"`
	StudentName string `db:"student_name" json:"student_name,omitempty"`
}

// Homework is a task assigned to a class for a subject.
type Homework struct {
	ID          int64  `db:"homework_id" json:"homework_id"`
	SubjectID   int64  `db:"subject_id" json:"subject_id"`
	ClassID     int64  `db:"class_id" json:"class_id"`
	Task        string `db:"task" json:"task"`
	DueDate     Date   `db:"due_date" json:"due_date"`
	SubjectName string `db:"subject_name" json:"subject_name,omitempty"`
}

// GradeFilter narrows grade listings. StudentIDs empty means any student.
type GradeFilter struct {
	StudentIDs []int64
	SubjectID  *int64
	ClassID    *int64
}
