package dto

import "github.com/noah-isme/school-diary-api/internal/models"

// CreateStudentRequest is the payload for POST /admin/student.
type CreateStudentRequest struct {
	Username    string `json:"username" form:"username" validate:"required,max=80"`
	Password    string `json:"password" form:"password" validate:"required"`
	FirstName   string `json:"first_name" form:"first_name" validate:"required,max=80"`
	LastName    string `json:"last_name" form:"last_name" validate:"required,max=80"`
	Email       string `json:"email" form:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" form:"phone_number" validate:"required,max=32"`
	ClassID     int64  `json:"class_id" form:"class_id" validate:"required,gt=0"`
	BirthDate   string `json:"birth_date" form:"birth_date" validate:"required,datetime=2006-01-02"`
	Address     string `json:"address" form:"address" validate:"required"`

	ProfilePicture *string `json:"-" form:"-"`
}

// PatchStudentRequest is the payload for PATCH /admin/student/:id.
type PatchStudentRequest struct {
	UserPatch
	ClassID   *int64  `json:"class_id" form:"class_id" validate:"omitempty,gt=0"`
	BirthDate *string `json:"birth_date" form:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Address   *string `json:"address" form:"address"`
}

// Empty reports whether no field is present.
func (r PatchStudentRequest) Empty() bool {
	return r.UserPatch.Empty() && r.ClassID == nil && r.BirthDate == nil && r.Address == nil
}

// ClassRef is the class block nested in student payloads.
type ClassRef struct {
	ClassID   int64  `json:"class_id"`
	ClassName string `json:"class_name"`
	TeacherID *int64 `json:"teacher_id"`
}

// NewClassRef converts a class row.
func NewClassRef(c *models.Class) *ClassRef {
	if c == nil {
		return nil
	}
	return &ClassRef{ClassID: c.ID, ClassName: c.Name, TeacherID: c.TeacherID}
}

// StudentCreated is the body returned after creating a student.
type StudentCreated struct {
	UserID    int64       `json:"user_id"`
	StudentID int64       `json:"student_id"`
	Username  string      `json:"username"`
	Email     *string     `json:"email"`
	APIKey    *string     `json:"api_key"`
	Class     *ClassRef   `json:"class"`
	BirthDate models.Date `json:"birth_date"`
}

// StudentDetail is the nested student view.
type StudentDetail struct {
	UserID         int64               `json:"user_id"`
	StudentID      int64               `json:"student_id"`
	Username       string              `json:"username"`
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	Email          *string             `json:"email"`
	PhoneNumber    string              `json:"phone_number"`
	ProfilePicture *string             `json:"profile_picture"`
	APIKey         *string             `json:"api_key"`
	Class          *ClassRef           `json:"class"`
	BirthDate      models.Date         `json:"birth_date"`
	Address        string              `json:"address"`
	Grades         []models.Grade      `json:"grades"`
	Attendance     []models.Attendance `json:"attendance"`
}
