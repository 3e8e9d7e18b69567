package models

// StudentSnapshot is the read-only view of a student the pipeline needs.
type StudentSnapshot struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	ClassName   string `json:"class_name,omitempty"`
	RollNumber  string `json:"roll_number,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Blocked     bool   `json:"blocked"`
	BlockReason string `json:"block_reason,omitempty"`
}

func (s *StudentSnapshot) Validate() error { return validateStruct(s) }

// HasEmail reports whether a delivery address is on record.
func (s *StudentSnapshot) HasEmail() bool {
	return s != nil && s.Email != ""
}
