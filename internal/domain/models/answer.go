package models

import (
	"errors"

	"gorm.io/gorm"
)

// ErrAnswerShape 答案必须且只能是选项或文本之一
var ErrAnswerShape = errors.New("answer must carry exactly one of choice or text")

// Answer 问卷答案：ChoiceAnswer 或 TextAnswer
type Answer interface {
	isAnswer()
}

// ChoiceAnswer 选择题答案
type ChoiceAnswer struct {
	ChoiceID uint
}

// TextAnswer 文本答案
type TextAnswer struct {
	Text string
}

func (ChoiceAnswer) isAnswer() {}
func (TextAnswer) isAnswer()   {}

// ParseAnswer builds the answer variant from the two optional wire fields.
func ParseAnswer(choiceID *uint, text *string) (Answer, error) {
	switch {
	case choiceID != nil && text == nil:
		if *choiceID == 0 {
			return nil, ErrAnswerShape
		}
		return ChoiceAnswer{ChoiceID: *choiceID}, nil
	case choiceID == nil && text != nil:
		return TextAnswer{Text: *text}, nil
	default:
		return nil, ErrAnswerShape
	}
}

// SurveyAnswer 持久化的答案行，ChoiceID 与 AnswerText 恰好一个非空
type SurveyAnswer struct {
	BaseModel
	ResponseID uint    `gorm:"not null;index" json:"response"`
	QuestionID uint    `gorm:"not null;index" json:"question"`
	ChoiceID   *uint   `gorm:"index" json:"choice,omitempty"`
	AnswerText *string `gorm:"type:text" json:"answer_text,omitempty"`
	Active     bool    `gorm:"not null" json:"active"`
}

// NewSurveyAnswer stores the variant in its column.
func NewSurveyAnswer(questionID uint, a Answer) SurveyAnswer {
	row := SurveyAnswer{QuestionID: questionID, Active: true}
	switch v := a.(type) {
	case ChoiceAnswer:
		id := v.ChoiceID
		row.ChoiceID = &id
	case TextAnswer:
		text := v.Text
		row.AnswerText = &text
	}
	return row
}

// Answer returns the stored variant.
func (a SurveyAnswer) Answer() (Answer, error) {
	return ParseAnswer(a.ChoiceID, a.AnswerText)
}

// BeforeSave rejects rows that carry both or neither variant.
func (a *SurveyAnswer) BeforeSave(tx *gorm.DB) error {
	_, err := a.Answer()
	return err
}
