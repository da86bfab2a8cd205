package model

type UserRole string

const (
	Candidate UserRole = "candidate"
	Expert    UserRole = "expert"
	Admin     UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name        string   `gorm:"size:100;not null" json:"name"`
	Email       string   `gorm:"size:100;unique;not null" json:"email"`
	PhoneNumber string   `gorm:"size:32" json:"phoneNumber"`
	Role        UserRole `gorm:"type:enum('candidate','expert','admin');default:'candidate'" json:"role"`
	Disabled    bool     `gorm:"default:false" json:"disabled"`
}

func (User) TableName() string {
	return "users"
}
