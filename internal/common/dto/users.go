package dto

// CreateUserRequest creates an account shell, e.g. a field code attached to
// a controller, before the real person takes it over.
type CreateUserRequest struct {
	Username  string  `json:"username" binding:"required"`
	Password  string  `json:"password" binding:"required"`
	Role      string  `json:"role" binding:"required,oneof=director supervisor controller agent"`
	FieldCode *string `json:"field_code"`
	ChefID    *uint   `json:"chef_id"`
}

// UpdateUserRequest assigns a real name, password or a new chef to an
// account. All fields are optional; only what is set changes.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	ChefID   *uint   `json:"chef_id"`
}
