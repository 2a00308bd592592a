package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func uintPtr(v uint) *uint    { return &v }
func strPtr(v string) *string { return &v }

func TestParseAnswer(t *testing.T) {
	a, err := ParseAnswer(uintPtr(3), nil)
	require.NoError(t, err)
	assert.Equal(t, ChoiceAnswer{ChoiceID: 3}, a)

	a, err = ParseAnswer(nil, strPtr("Great"))
	require.NoError(t, err)
	assert.Equal(t, TextAnswer{Text: "Great"}, a)

	_, err = ParseAnswer(uintPtr(3), strPtr("Great"))
	assert.ErrorIs(t, err, ErrAnswerShape)

	_, err = ParseAnswer(nil, nil)
	assert.ErrorIs(t, err, ErrAnswerShape)

	_, err = ParseAnswer(uintPtr(0), nil)
	assert.ErrorIs(t, err, ErrAnswerShape)
}

func TestSurveyAnswer_RoundTrip(t *testing.T) {
	row := NewSurveyAnswer(7, ChoiceAnswer{ChoiceID: 2})
	assert.Equal(t, uint(7), row.QuestionID)
	assert.Nil(t, row.AnswerText)
	got, err := row.Answer()
	require.NoError(t, err)
	assert.Equal(t, ChoiceAnswer{ChoiceID: 2}, got)

	row = NewSurveyAnswer(8, TextAnswer{Text: "ok"})
	assert.Nil(t, row.ChoiceID)
	got, err = row.Answer()
	require.NoError(t, err)
	assert.Equal(t, TextAnswer{Text: "ok"}, got)
}

func TestSurveyAnswer_BeforeSaveRejectsBadShape(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&SurveyAnswer{}))

	bad := SurveyAnswer{ResponseID: 1, QuestionID: 1, ChoiceID: uintPtr(1), AnswerText: strPtr("x"), Active: true}
	assert.ErrorIs(t, db.Create(&bad).Error, ErrAnswerShape)

	empty := SurveyAnswer{ResponseID: 1, QuestionID: 1, Active: true}
	assert.ErrorIs(t, db.Create(&empty).Error, ErrAnswerShape)

	good := NewSurveyAnswer(1, TextAnswer{Text: "fine"})
	good.ResponseID = 1
	require.NoError(t, db.Create(&good).Error)

	var count int64
	db.Model(&SurveyAnswer{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
