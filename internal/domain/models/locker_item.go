package models

import "gorm.io/gorm"

// LockerStatus 储物柜物品状态，只能从 pending 变为 received
type LockerStatus string

const (
	LockerStatusPending  LockerStatus = "pending"
	LockerStatusReceived LockerStatus = "received"
)

// LockerItem 储物柜中等待住户领取的包裹
type LockerItem struct {
	BaseModel
	ResidentID uint         `gorm:"not null;index" json:"resident"`
	ItemName   string       `gorm:"type:varchar(100);not null" json:"item_name"`
	Status     LockerStatus `gorm:"type:varchar(20);not null" json:"status"`
	Active     bool         `gorm:"not null" json:"active"`

	Resident     *User  `gorm:"foreignKey:ResidentID" json:"-"`
	ResidentName string `gorm:"-" json:"resident_name,omitempty"`
}

// AfterFind fills the read-only resident name.
func (l *LockerItem) AfterFind(tx *gorm.DB) error {
	if l.Resident != nil {
		l.ResidentName = l.Resident.Username
	}
	return nil
}
