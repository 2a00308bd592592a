package models

import "gorm.io/gorm"

// PayMethod 付款方式
type PayMethod string

const (
	PayMethodTransfer PayMethod = "transfer"
	PayMethodOnline   PayMethod = "online"
)

// InvoiceStatus 账单状态
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusConfirmed InvoiceStatus = "confirmed"
	InvoiceStatusRejected  InvoiceStatus = "rejected"
)

// Invoice 物业费账单，属于一个住户
type Invoice struct {
	BaseModel
	ResidentID uint          `gorm:"not null;index" json:"resident"`
	MonthYear  string        `gorm:"type:varchar(7);not null" json:"month_year"` // 01/2024
	Amount     float64       `gorm:"type:decimal(12,2);not null" json:"amount"`
	PayMethod  PayMethod     `gorm:"type:varchar(20);not null" json:"pay_method"`
	PayProof   string        `gorm:"type:varchar(255)" json:"pay_proof"`
	PayStatus  InvoiceStatus `gorm:"type:varchar(20);not null" json:"pay_status"`
	Active     bool          `gorm:"not null" json:"active"`

	Resident     *User  `gorm:"foreignKey:ResidentID" json:"-"`
	ResidentName string `gorm:"-" json:"resident_name,omitempty"`
	PayProofURL  string `gorm:"-" json:"pay_proof_url,omitempty"`
}

// AfterFind fills the read-only resident name.
func (i *Invoice) AfterFind(tx *gorm.DB) error {
	if i.Resident != nil {
		i.ResidentName = i.Resident.Username
	}
	return nil
}
