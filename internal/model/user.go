package model

// User roles
const (
	RoleAdmin     = "admin"
	RoleCandidate = "candidate"
	RoleGuardian  = "guardian"
)

// User login account (table users)
type User struct {
	UserID             string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username           string `gorm:"type:varchar(150);not null;uniqueIndex"         json:"username"`
	Email              string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash       string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               string `gorm:"type:varchar(20);not null"                      json:"role"` // admin | candidate | guardian
	IsActive           bool   `gorm:"not null"                                       json:"is_active"`
	MustChangePassword bool   `gorm:"not null"                                       json:"must_change_password"`
	BaseModel
}

// TableName table name
func (User) TableName() string { return "users" }
