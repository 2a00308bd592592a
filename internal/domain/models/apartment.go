package models

import "gorm.io/gorm"

// DefaultApartmentFloor 创建时未提供楼层使用的默认值
const DefaultApartmentFloor = 1

// Apartment 公寓，最多关联一个住户
type Apartment struct {
	BaseModel
	Number     string `gorm:"type:varchar(50);uniqueIndex;not null" json:"number"`
	Floor      int    `gorm:"not null" json:"floor"`
	Active     bool   `gorm:"not null" json:"active"`
	ResidentID *uint  `gorm:"uniqueIndex" json:"resident"` // 一个住户同一时间只能持有一套公寓

	Resident         *User  `gorm:"foreignKey:ResidentID" json:"-"`
	ResidentUsername string `gorm:"-" json:"resident_username,omitempty"`
}

// AfterFind fills the read-only username from the preloaded resident.
func (a *Apartment) AfterFind(tx *gorm.DB) error {
	if a.Resident != nil {
		a.ResidentUsername = a.Resident.Username
	}
	return nil
}
