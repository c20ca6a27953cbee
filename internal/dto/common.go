package dto

// UpdateResult is returned by partial updates.
type UpdateResult struct {
	Message       string   `json:"message"`
	ID            int64    `json:"id"`
	UpdatedFields []string `json:"updated_fields"`
}

// UserPatch carries the optional user fields shared by admin and settings updates.
type UserPatch struct {
	Username    *string `json:"username" form:"username" validate:"omitempty,min=1,max=80"`
	Password    *string `json:"password" form:"password" validate:"omitempty,min=1"`
	FirstName   *string `json:"first_name" form:"first_name" validate:"omitempty,max=80"`
	LastName    *string `json:"last_name" form:"last_name" validate:"omitempty,max=80"`
	Email       *string `json:"email" form:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" form:"phone_number" validate:"omitempty,max=32"`

	// ProfilePicture is set from an uploaded file, never from the request body.
	ProfilePicture *string `json:"-" form:"-"`
}

// Empty reports whether no field is present.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Password == nil && p.FirstName == nil && p.LastName == nil &&
		p.Email == nil && p.PhoneNumber == nil && p.ProfilePicture == nil
}
