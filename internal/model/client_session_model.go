package model

import "time"

type ClientSession struct {
	ClientId  string    `gorm:"type:varchar(128);primaryKey"`
	UserId    string    `gorm:"type:varchar(64);not null;index"`
	SessionId string    `gorm:"type:varchar(64);not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ClientSession) TableName() string {
	return "client_sessions"
}
