package models

import "time"

// SessionModel is one live authenticated session. The row is the single
// source of truth: nothing else caches session state.
//
// ID doubles as the access token and is mirrored into Token for
// compatibility with the identity provider's schema. Rotation rewrites
// id/token/refreshToken in place rather than inserting a new row, so the
// old refresh token dies the moment the rotation commits.
type SessionModel struct {
	ID               string    `json:"id"               gorm:"type:char(64);primaryKey"`
	Token            string    `json:"token"            gorm:"column:token;type:char(64);not null"`
	UserID           string    `json:"userId"           gorm:"column:userId;type:char(36);index;not null"`
	IPAddress        string    `json:"ipAddress"        gorm:"column:ipAddress"`
	UserAgent        string    `json:"userAgent"        gorm:"column:userAgent;type:text"`
	ExpiresAt        time.Time `json:"expiresAt"        gorm:"column:expiresAt;index;not null"`
	RefreshToken     string    `json:"refreshToken"     gorm:"column:refreshToken;type:char(64);uniqueIndex"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt" gorm:"column:refreshExpiresAt;index"`
	CreatedAt        time.Time `json:"createdAt"        gorm:"column:createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"        gorm:"column:updatedAt"`
}

func (SessionModel) TableName() string { return "session" }
