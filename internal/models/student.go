package models

// Student is the role row of a user enrolled in a class.
type Student struct {
	UserID    int64  `db:"user_id" json:"user_id"`
	StudentID int64  `db:"student_id" json:"student_id"`
	ClassID   *int64 `db:"class_id" json:"class_id"`
	BirthDate Date   `db:"birth_date" json:"birth_date"`
	Address   string `db:"address" json:"address"`
}

// StudentRecord joins a student with its user row and class name.
type StudentRecord struct {
	User
	StudentID int64   `db:"student_id" json:"student_id"`
	ClassID   *int64  `db:"class_id" json:"class_id"`
	ClassName *string `db:"class_name" json:"class_name"`
	BirthDate Date    `db:"birth_date" json:"birth_date"`
	Address   string  `db:"address" json:"address"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Search  string
	ClassID *int64
}
