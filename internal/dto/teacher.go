package dto

import "github.com/noah-isme/school-diary-api/internal/models"

// CreateTeacherRequest is the payload for POST /admin/teacher. A zero or missing class_id leaves
// the teacher without a homeroom class.
type CreateTeacherRequest struct {
	Username    string  `json:"username" form:"username" validate:"required,max=80"`
	Password    string  `json:"password" form:"password" validate:"required"`
	FirstName   string  `json:"first_name" form:"first_name" validate:"required,max=80"`
	LastName    string  `json:"last_name" form:"last_name" validate:"required,max=80"`
	Email       string  `json:"email" form:"email" validate:"required,email"`
	PhoneNumber string  `json:"phone_number" form:"phone_number" validate:"required,max=32"`
	PositionID  int64   `json:"position_id" form:"position_id" validate:"required,gt=0"`
	SubjectIDs  []int64 `json:"subject_ids" form:"subject_ids" validate:"omitempty,dive,gt=0"`
	ClassID     *int64  `json:"class_id" form:"class_id" validate:"omitempty,gte=0"`

	ProfilePicture *string `json:"-" form:"-"`
}

// PatchTeacherRequest is the payload for PATCH /admin/teacher/:id. class_id 0 clears the homeroom.
// position_id replaces the position assignment and its subject links.
type PatchTeacherRequest struct {
	UserPatch
	ClassID    *int64  `json:"class_id" form:"class_id" validate:"omitempty,gte=0"`
	PositionID *int64  `json:"position_id" form:"position_id" validate:"omitempty,gt=0"`
	SubjectIDs []int64 `json:"subject_ids" form:"subject_ids" validate:"omitempty,dive,gt=0"`
}

// Empty reports whether no field is present.
func (r PatchTeacherRequest) Empty() bool {
	return r.UserPatch.Empty() && r.ClassID == nil && r.PositionID == nil && r.SubjectIDs == nil
}

// PositionSubjects is a position with the subjects linked to it.
type PositionSubjects struct {
	PositionID   int64            `json:"position_id"`
	PositionName string           `json:"position_name"`
	Subjects     []models.Subject `json:"subjects"`
}

// TeacherSummary is one row of the teacher listing.
type TeacherSummary struct {
	UserID      int64              `json:"user_id"`
	TeacherID   int64              `json:"teacher_id"`
	Username    string             `json:"username"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Email       *string            `json:"email"`
	PhoneNumber string             `json:"phone_number"`
	Classes     []models.Class     `json:"classes"`
	Positions   []PositionSubjects `json:"positions"`
}

// TeacherDetail is the nested teacher view.
type TeacherDetail struct {
	TeacherSummary
	ProfilePicture *string                 `json:"profile_picture"`
	APIKey         *string                 `json:"api_key"`
	Schedules      []models.ScheduleRecord `json:"schedules"`
}

// TeacherCreated is the body returned after creating a teacher.
type TeacherCreated struct {
	UserID    int64   `json:"user_id"`
	TeacherID int64   `json:"teacher_id"`
	Username  string  `json:"username"`
	Email     *string `json:"email"`
	APIKey    *string `json:"api_key"`
	ClassID   *int64  `json:"class_id"`
}
