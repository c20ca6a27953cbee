package models

// Teacher is the role row of a teaching user.
type Teacher struct {
	UserID    int64 `db:"user_id" json:"user_id"`
	TeacherID int64 `db:"teacher_id" json:"teacher_id"`
}

// TeacherRecord joins a teacher with its user row.
type TeacherRecord struct {
	User
	TeacherID int64 `db:"teacher_id" json:"teacher_id"`
}

// Admin is the role row of an administrator.
type Admin struct {
	UserID  int64 `db:"user_id" json:"user_id"`
	AdminID int64 `db:"admin_id" json:"admin_id"`
}

// TeacherUpdate is a teacher change set. User holds users columns; ClassID 0 clears the homeroom;
// PositionID replaces the assignment with SubjectIDs linked to it; SubjectIDs alone relinks the
// current assignment.
type TeacherUpdate struct {
	User       map[string]interface{}
	ClassID    *int64
	PositionID *int64
	SubjectIDs []int64
}
