package dto

// CreateScheduleRequest is the payload for POST /admin/schedule.
type CreateScheduleRequest struct {
	ClassID   int64  `json:"class_id" validate:"required,gt=0"`
	SubjectID int64  `json:"subject_id" validate:"required,gt=0"`
	TeacherID int64  `json:"teacher_id" validate:"required,gt=0"`
	DayOfWeek string `json:"day_of_week" validate:"required,weekday"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// PatchScheduleRequest is the payload for PATCH /admin/schedule/:id.
type PatchScheduleRequest struct {
	ClassID   *int64  `json:"class_id" validate:"omitempty,gt=0"`
	SubjectID *int64  `json:"subject_id" validate:"omitempty,gt=0"`
	TeacherID *int64  `json:"teacher_id" validate:"omitempty,gt=0"`
	DayOfWeek *string `json:"day_of_week" validate:"omitempty,weekday"`
	StartTime *string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime   *string `json:"end_time" validate:"omitempty,datetime=15:04"`
}

// Empty reports whether no field is present.
func (r PatchScheduleRequest) Empty() bool {
	return r.ClassID == nil && r.SubjectID == nil && r.TeacherID == nil &&
		r.DayOfWeek == nil && r.StartTime == nil && r.EndTime == nil
}
