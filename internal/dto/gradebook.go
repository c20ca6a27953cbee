package dto

import "github.com/noah-isme/school-diary-api/internal/models"

// CreateGradeRequest is the payload for POST /teacher/grades.
type CreateGradeRequest struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	SubjectID int64  `json:"subject_id" validate:"required,gt=0"`
	Grade     int    `json:"grade" validate:"required,min=2,max=5"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
}

// UpdateGradeRequest is the payload for PUT /teacher/grades/:grade_id.
type UpdateGradeRequest struct {
	Grade *int    `json:"grade" validate:"omitempty,min=2,max=5"`
	Date  *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// CreateHomeworkRequest is the payload for POST /teacher/homework.
type CreateHomeworkRequest struct {
	ClassID   int64  `json:"class_id" validate:"required,gt=0"`
	SubjectID int64  `json:"subject_id" validate:"required,gt=0"`
	Task      string `json:"task" validate:"required"`
	DueDate   string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

// CreateAttendanceRequest is the payload for POST /teacher/attendance.
type CreateAttendanceRequest struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,oneof=присутствовал отсутствовал"`
}

// UpdateAttendanceRequest is the payload for PUT /teacher/attendance/:attendance_id.
type UpdateAttendanceRequest struct {
	Date   *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status *string `json:"status" validate:"omitempty,oneof=присутствовал отсутствовал"`
}

// StudentProgress is a student with grades and attendance.
type StudentProgress struct {
	models.StudentRecord
	Grades     []models.Grade      `json:"grades"`
	Attendance []models.Attendance `json:"attendance"`
}

// MyClass is the homeroom view of a teacher.
type MyClass struct {
	Class    models.Class            `json:"class"`
	Students []StudentProgress       `json:"students"`
	Schedule []models.ScheduleRecord `json:"schedule"`
}

// GradesAttendance is a student's record for one subject.
type GradesAttendance struct {
	Subject      models.Subject      `json:"subject"`
	Grades       []models.Grade      `json:"grades"`
	Attendance   []models.Attendance `json:"attendance"`
	AverageGrade *float64            `json:"average_grade"`
}
