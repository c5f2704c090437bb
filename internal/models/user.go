package models

// UserModel mirrors the identity provider's "user" table. This service only
// reads it (email existence checks, session identity lookups); account
// creation goes through the provider.
type UserModel struct {
	Base
	Email         string `json:"email"         gorm:"column:email;uniqueIndex;not null"`
	Name          string `json:"name"          gorm:"column:name"`
	Image         string `json:"image"         gorm:"column:image"`
	EmailVerified bool   `json:"emailVerified" gorm:"column:emailVerified"`
}

func (UserModel) TableName() string { return "user" }
