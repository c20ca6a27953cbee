package dto

// SubjectRequest is the payload for creating a subject.
type SubjectRequest struct {
	SubjectName string `json:"subject_name" validate:"required,max=120"`
}

// PatchSubjectRequest is the payload for PATCH /admin/subject/:id.
type PatchSubjectRequest struct {
	SubjectName *string `json:"subject_name" validate:"omitempty,min=1,max=120"`
}

// CreateClassRequest is the payload for POST /teacher/classes.
type CreateClassRequest struct {
	ClassName string `json:"class_name" validate:"required,max=80"`
	TeacherID *int64 `json:"teacher_id" validate:"omitempty,gt=0"`
}
