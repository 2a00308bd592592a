package services

import (
	"context"
	"errors"
	"strings"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/internal/infrastructure/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InterfaceSurveyService defines the survey service interface
type InterfaceSurveyService interface {
	GetAllSurveys(ctx context.Context, page, pageSize int) ([]models.Survey, int64, error)
	GetSurveyByID(ctx context.Context, id uint) (*models.Survey, error)
	CreateSurvey(ctx context.Context, actor access.Actor, input SurveyInput) (*models.Survey, error)
	UpdateSurvey(ctx context.Context, id uint, update SurveyUpdate) (*models.Survey, error)
	DeleteSurvey(ctx context.Context, id uint) error
	GetSurveyResults(ctx context.Context, id uint) (*SurveyResults, error)
}

// SurveyInput 创建问卷的输入，问题和选项按给定顺序保存
type SurveyInput struct {
	Title       string
	Description string
	Questions   []QuestionInput
}

// QuestionInput 问题及其选项；没有选项的问题为文本题
type QuestionInput struct {
	QuestionText string
	Choices      []string
}

// SurveyUpdate 可更新的问卷字段
type SurveyUpdate struct {
	Title       *string
	Description *string
	Active      *bool
}

// SurveyResults 问卷统计结果
type SurveyResults struct {
	SurveyID       uint             `json:"survey_id"`
	Survey         string           `json:"survey"`
	TotalResponses int64            `json:"total_responses"`
	Questions      []QuestionResult `json:"questions"`
}

// QuestionResult 单个问题的统计
type QuestionResult struct {
	ID           uint           `json:"id"`
	QuestionText string         `json:"question_text"`
	Choices      []ChoiceResult `json:"choices"`
	TextAnswers  int64          `json:"text_answers"`
}

// ChoiceResult 单个选项被选择的次数
type ChoiceResult struct {
	ID         uint   `json:"id"`
	ChoiceText string `json:"choice_text"`
	Count      int64  `json:"count"`
}

// SurveyService 提供问卷相关的服务
type SurveyService struct {
	DB     *gorm.DB
	Config *config.Config
	Cache  InterfaceRedisService
	Log    *zap.Logger
}

// NewSurveyService 创建一个新的问卷服务，cache 为 nil 时不缓存统计结果
func NewSurveyService(db *gorm.DB, cfg *config.Config, cache InterfaceRedisService, log *zap.Logger) InterfaceSurveyService {
	return &SurveyService{
		DB:     db,
		Config: cfg,
		Cache:  cache,
		Log:    log,
	}
}

func withQuestions(db *gorm.DB) *gorm.DB {
	return db.Preload("Questions", byPosition).Preload("Questions.Choices", byPosition)
}

// 1 GetAllSurveys 获取问卷列表，包含问题和选项
func (s *SurveyService) GetAllSurveys(ctx context.Context, page, pageSize int) ([]models.Survey, int64, error) {
	var surveys []models.Survey
	var total int64

	if err := s.DB.WithContext(ctx).Model(&models.Survey{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.DB.WithContext(ctx).Scopes(withQuestions, newestFirst, Paginate(page, pageSize)).Find(&surveys).Error; err != nil {
		return nil, 0, err
	}
	return surveys, total, nil
}

// 2 GetSurveyByID 根据ID获取问卷
func (s *SurveyService) GetSurveyByID(ctx context.Context, id uint) (*models.Survey, error) {
	var survey models.Survey
	if err := s.DB.WithContext(ctx).Scopes(withQuestions).First(&survey, id).Error; err != nil {
		return nil, notFound(err, ErrSurveyNotFound)
	}
	return &survey, nil
}

// 3 CreateSurvey 在一个事务中创建问卷、问题和选项
func (s *SurveyService) CreateSurvey(ctx context.Context, actor access.Actor, input SurveyInput) (*models.Survey, error) {
	if err := access.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, invalid("title is required")
	}

	survey := models.Survey{
		Title:       input.Title,
		Description: input.Description,
		CreatedByID: actor.UserID,
		Active:      true,
	}

	err := database.WithTransaction(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.Create(&survey).Error; err != nil {
			return err
		}

		for qi, q := range input.Questions {
			if strings.TrimSpace(q.QuestionText) == "" {
				return invalid("question_text is required")
			}
			question := models.SurveyQuestion{
				SurveyID:     survey.ID,
				QuestionText: q.QuestionText,
				Position:     qi + 1,
				Active:       true,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}

			for ci, text := range q.Choices {
				if strings.TrimSpace(text) == "" {
					return invalid("choice_text is required")
				}
				choice := models.SurveyChoice{
					QuestionID: question.ID,
					ChoiceText: text,
					Position:   ci + 1,
					Active:     true,
				}
				if err := tx.Create(&choice).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetSurveyByID(ctx, survey.ID)
}

// 4 UpdateSurvey 更新问卷标题、描述或启用状态
func (s *SurveyService) UpdateSurvey(ctx context.Context, id uint, update SurveyUpdate) (*models.Survey, error) {
	db := s.DB.WithContext(ctx)

	var survey models.Survey
	if err := db.First(&survey, id).Error; err != nil {
		return nil, notFound(err, ErrSurveyNotFound)
	}

	updates := make(map[string]interface{})
	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, invalid("title is required")
		}
		updates["title"] = *update.Title
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.Active != nil {
		updates["active"] = *update.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&survey).Updates(updates).Error; err != nil {
			return nil, err
		}
		invalidateResults(ctx, s.Cache, s.Log, id)
	}
	return s.GetSurveyByID(ctx, id)
}

// 5 DeleteSurvey 删除问卷及其问题、选项、答复和答案
func (s *SurveyService) DeleteSurvey(ctx context.Context, id uint) error {
	err := database.WithTransaction(ctx, s.DB, func(tx *gorm.DB) error {
		var survey models.Survey
		if err := tx.First(&survey, id).Error; err != nil {
			return notFound(err, ErrSurveyNotFound)
		}
		return deleteSurveyTree(tx, []uint{id})
	})
	if err != nil {
		return err
	}

	invalidateResults(ctx, s.Cache, s.Log, id)
	return nil
}

// 6 GetSurveyResults 统计答复总数以及每个选项的选择次数，结果缓存到 Redis
func (s *SurveyService) GetSurveyResults(ctx context.Context, id uint) (*SurveyResults, error) {
	// 版本在统计前读取，统计期间有新的答复时不写回旧结果
	var version int64
	cacheable := false
	if s.Cache != nil {
		cached, err := s.Cache.GetSurveyResults(ctx, id)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.Log.Warn("read survey results cache failed", zap.Uint("survey_id", id), zap.Error(err))
		}
		if version, err = s.Cache.SurveyResultsVersion(ctx, id); err == nil {
			cacheable = true
		}
	}

	survey, err := s.GetSurveyByID(ctx, id)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	results := &SurveyResults{
		SurveyID:  survey.ID,
		Survey:    survey.Title,
		Questions: make([]QuestionResult, 0, len(survey.Questions)),
	}
	if err := db.Model(&models.SurveyResponse{}).Where("survey_id = ?", id).Count(&results.TotalResponses).Error; err != nil {
		return nil, err
	}

	questionIDs := make([]uint, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		questionIDs = append(questionIDs, q.ID)
	}

	choiceCounts := map[uint]int64{}
	textCounts := map[uint]int64{}
	if len(questionIDs) > 0 {
		var rows []struct {
			ID    uint
			Count int64
		}
		if err := db.Model(&models.SurveyAnswer{}).
			Select("choice_id AS id, COUNT(*) AS count").
			Where("question_id IN ? AND choice_id IS NOT NULL", questionIDs).
			Group("choice_id").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			choiceCounts[r.ID] = r.Count
		}

		rows = nil
		if err := db.Model(&models.SurveyAnswer{}).
			Select("question_id AS id, COUNT(*) AS count").
			Where("question_id IN ? AND answer_text IS NOT NULL", questionIDs).
			Group("question_id").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			textCounts[r.ID] = r.Count
		}
	}

	for _, q := range survey.Questions {
		qr := QuestionResult{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Choices:      make([]ChoiceResult, 0, len(q.Choices)),
			TextAnswers:  textCounts[q.ID],
		}
		for _, c := range q.Choices {
			qr.Choices = append(qr.Choices, ChoiceResult{ID: c.ID, ChoiceText: c.ChoiceText, Count: choiceCounts[c.ID]})
		}
		results.Questions = append(results.Questions, qr)
	}

	if cacheable {
		err := s.Cache.CacheSurveyResults(ctx, results, version)
		switch {
		case errors.Is(err, ErrCacheStale):
			s.Log.Debug("survey results changed while counting, skip cache", zap.Uint("survey_id", id))
		case err != nil:
			s.Log.Warn("write survey results cache failed", zap.Uint("survey_id", id), zap.Error(err))
		}
	}
	return results, nil
}

// deleteSurveyTree removes surveys with their questions, choices, responses and answers.
func deleteSurveyTree(tx *gorm.DB, surveyIDs []uint) error {
	if len(surveyIDs) == 0 {
		return nil
	}

	var responseIDs []uint
	if err := tx.Model(&models.SurveyResponse{}).Where("survey_id IN ?", surveyIDs).Pluck("id", &responseIDs).Error; err != nil {
		return err
	}
	if err := deleteResponses(tx, responseIDs); err != nil {
		return err
	}

	var questionIDs []uint
	if err := tx.Model(&models.SurveyQuestion{}).Where("survey_id IN ?", surveyIDs).Pluck("id", &questionIDs).Error; err != nil {
		return err
	}
	if len(questionIDs) > 0 {
		if err := tx.Where("question_id IN ?", questionIDs).Delete(&models.SurveyChoice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", questionIDs).Delete(&models.SurveyQuestion{}).Error; err != nil {
			return err
		}
	}

	return tx.Where("id IN ?", surveyIDs).Delete(&models.Survey{}).Error
}

// deleteResponses removes responses and their answers.
func deleteResponses(tx *gorm.DB, responseIDs []uint) error {
	if len(responseIDs) == 0 {
		return nil
	}
	if err := tx.Where("response_id IN ?", responseIDs).Delete(&models.SurveyAnswer{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", responseIDs).Delete(&models.SurveyResponse{}).Error
}

// invalidateResults drops the cached tally; a failure only costs a stale read until the TTL expires.
func invalidateResults(ctx context.Context, cache InterfaceRedisService, log *zap.Logger, surveyID uint) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateSurveyResults(ctx, surveyID); err != nil {
		log.Warn("invalidate survey results cache failed", zap.Uint("survey_id", surveyID), zap.Error(err))
	}
}
