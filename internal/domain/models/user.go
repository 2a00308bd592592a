package models

// User 系统账户：管理员或住户
type User struct {
	BaseModel
	Username    string `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Password    string `gorm:"type:varchar(100);not null" json:"-"` // bcrypt 哈希，不在JSON中暴露
	Role        Role   `gorm:"type:varchar(20);not null" json:"role"`
	Active      bool   `gorm:"not null" json:"active"`
	FirstName   string `gorm:"type:varchar(150)" json:"first_name"`
	LastName    string `gorm:"type:varchar(150)" json:"last_name"`
	Email       string `gorm:"type:varchar(254)" json:"email"`
	PhoneNumber string `gorm:"type:varchar(15)" json:"phone_number"`
	Avatar      string `gorm:"type:varchar(255)" json:"avatar"` // 头像文件存储路径

	AvatarURL string `gorm:"-" json:"avatar_url,omitempty"`
}
