package domain

import "time"

// Device is a piece of equipment addresses can be attached to.
type Device struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Type     string `gorm:"size:64;default:''" json:"type"`
	Location string `gorm:"size:255;default:''" json:"location"`

	IPAddresses []IPAddress `gorm:"foreignKey:DeviceID" json:"-"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
}
