package models

import "gorm.io/gorm"

// ComplaintStatus 投诉处理状态
type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "open"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusClosed     ComplaintStatus = "closed"
)

// Complaint 住户提交的投诉
type Complaint struct {
	BaseModel
	ResidentID    uint            `gorm:"not null;index" json:"resident"`
	Title         string          `gorm:"type:varchar(200);not null" json:"title"`
	Content       string          `gorm:"type:text;not null" json:"content"`
	ResolveStatus ComplaintStatus `gorm:"type:varchar(20);not null" json:"resolve_status"`
	Active        bool            `gorm:"not null" json:"active"`

	Resident     *User  `gorm:"foreignKey:ResidentID" json:"-"`
	ResidentName string `gorm:"-" json:"resident_name,omitempty"`
}

// AfterFind fills the read-only resident name.
func (c *Complaint) AfterFind(tx *gorm.DB) error {
	if c.Resident != nil {
		c.ResidentName = c.Resident.Username
	}
	return nil
}
