package models

// Survey 问卷，包含有序的问题列表
type Survey struct {
	BaseModel
	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	CreatedByID uint   `gorm:"not null;index" json:"created_by"`
	Active      bool   `gorm:"not null" json:"active"`

	Questions []SurveyQuestion `gorm:"foreignKey:SurveyID" json:"questions"`
}

// SurveyQuestion 问卷问题，按 Position 排序
type SurveyQuestion struct {
	BaseModel
	SurveyID     uint   `gorm:"not null;index" json:"survey"`
	QuestionText string `gorm:"type:varchar(255);not null" json:"question_text"`
	Position     int    `gorm:"not null" json:"position"`
	Active       bool   `gorm:"not null" json:"active"`

	Choices []SurveyChoice `gorm:"foreignKey:QuestionID" json:"choices"`
}

// SurveyChoice 问题的可选项，按 Position 排序
type SurveyChoice struct {
	BaseModel
	QuestionID uint   `gorm:"not null;index" json:"question"`
	ChoiceText string `gorm:"type:varchar(200);not null" json:"choice_text"`
	Position   int    `gorm:"not null" json:"position"`
	Active     bool   `gorm:"not null" json:"active"`
}

// SurveyResponse 住户对一份问卷的完整提交
type SurveyResponse struct {
	BaseModel
	SurveyID   uint `gorm:"not null;index" json:"survey"`
	ResidentID uint `gorm:"not null;index" json:"resident"`
	Active     bool `gorm:"not null" json:"active"`

	Answers []SurveyAnswer `gorm:"foreignKey:ResponseID" json:"answers"`
}
