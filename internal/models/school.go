package models

// Class is a group of students optionally led by a homeroom teacher.
type Class struct {
	ID        int64  `db:"class_id" json:"class_id"`
	Name      string `db:"class_name" json:"class_name"`
	TeacherID *int64 `db:"teacher_id" json:"teacher_id"`
}

// Subject is a taught discipline.
type Subject struct {
	ID   int64  `db:"subject_id" json:"subject_id"`
	Name string `db:"subject_name" json:"subject_name"`
}

// Position is a teacher position such as head teacher.
type Position struct {
	ID   int64  `db:"position_id" json:"position_id"`
	Name string `db:"position_name" json:"position_name"`
}

// PositionAssignment links a teacher to a position.
type PositionAssignment struct {
	ID         int64 `db:"assignment_id" json:"assignment_id"`
	TeacherID  int64 `db:"teacher_id" json:"teacher_id"`
	PositionID int64 `db:"position_id" json:"position_id"`
}

// AssignedSubject is a subject reachable through a teacher position assignment.
type AssignedSubject struct {
	AssignmentID int64   `db:"assignment_id" json:"-"`
	PositionID   int64   `db:"position_id" json:"-"`
	PositionName string  `db:"position_name" json:"-"`
	SubjectID    *int64  `db:"subject_id" json:"subject_id"`
	SubjectName  *string `db:"subject_name" json:"subject_name"`
}
