package services

import (
	"context"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/internal/infrastructure/database"
	"condo-http-service/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 重复提交策略
const (
	ResponsePolicyMultiple = "multiple"
	ResponsePolicySingle   = "single"
)

// InterfaceSurveyResponseService defines the survey response service interface
type InterfaceSurveyResponseService interface {
	GetAllResponses(ctx context.Context, actor access.Actor, page, pageSize int) ([]models.SurveyResponse, int64, error)
	GetResponseByID(ctx context.Context, actor access.Actor, id uint) (*models.SurveyResponse, error)
	CreateResponse(ctx context.Context, actor access.Actor, surveyID uint, answers []AnswerInput) (*models.SurveyResponse, error)
	DeleteResponse(ctx context.Context, actor access.Actor, id uint) error
}

// AnswerInput 一个问题的答案
type AnswerInput struct {
	QuestionID uint
	Answer     models.Answer
}

// SurveyResponseService 提供问卷答复相关的服务
type SurveyResponseService struct {
	DB     *gorm.DB
	Config *config.Config
	Cache  InterfaceRedisService
	Log    *zap.Logger
}

// NewSurveyResponseService 创建一个新的问卷答复服务
func NewSurveyResponseService(db *gorm.DB, cfg *config.Config, cache InterfaceRedisService, log *zap.Logger) InterfaceSurveyResponseService {
	return &SurveyResponseService{
		DB:     db,
		Config: cfg,
		Cache:  cache,
		Log:    log,
	}
}

func (s *SurveyResponseService) visible(ctx context.Context, actor access.Actor) *gorm.DB {
	db := s.DB.WithContext(ctx).Model(&models.SurveyResponse{})
	if !actor.IsAdmin() {
		db = db.Where("resident_id = ?", actor.UserID)
	}
	return db
}

// 1 GetAllResponses 获取答复列表，住户只能看到自己的
func (s *SurveyResponseService) GetAllResponses(ctx context.Context, actor access.Actor, page, pageSize int) ([]models.SurveyResponse, int64, error) {
	var responses []models.SurveyResponse
	var total int64

	if err := s.visible(ctx, actor).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.visible(ctx, actor).Preload("Answers").Scopes(newestFirst, Paginate(page, pageSize)).Find(&responses).Error; err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// 2 GetResponseByID 根据ID获取答复
func (s *SurveyResponseService) GetResponseByID(ctx context.Context, actor access.Actor, id uint) (*models.SurveyResponse, error) {
	var response models.SurveyResponse
	if err := s.visible(ctx, actor).Preload("Answers").First(&response, id).Error; err != nil {
		return nil, notFound(err, ErrSurveyResponseNotFound)
	}
	return &response, nil
}

// 3 CreateResponse 在一个事务中保存答复和全部答案。
// 每个问题必须属于该问卷，选项必须属于对应问题，同一问题只能回答一次。
func (s *SurveyResponseService) CreateResponse(ctx context.Context, actor access.Actor, surveyID uint, answers []AnswerInput) (*models.SurveyResponse, error) {
	if !actor.Authenticated() {
		return nil, access.ErrUnauthenticated
	}
	if len(answers) == 0 {
		return nil, invalid("at least one answer is required")
	}

	response := models.SurveyResponse{
		SurveyID:   surveyID,
		ResidentID: actor.UserID,
		Active:     true,
	}

	err := database.WithTransaction(ctx, s.DB, func(tx *gorm.DB) error {
		var survey models.Survey
		if err := database.LockForUpdate(tx).First(&survey, surveyID).Error; err != nil {
			return notFound(err, ErrSurveyNotFound)
		}

		if s.Config.SurveyResponsePolicy == ResponsePolicySingle {
			var count int64
			if err := tx.Model(&models.SurveyResponse{}).
				Where("survey_id = ? AND resident_id = ?", surveyID, actor.UserID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrSurveyAlreadyAnswered
			}
		}

		rows, err := s.buildAnswers(tx, surveyID, answers)
		if err != nil {
			return err
		}

		if err := tx.Create(&response).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].ResponseID = response.ID
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		response.Answers = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateResults(ctx, s.Cache, s.Log, surveyID)
	metrics.BusinessEvents.WithLabelValues(metrics.EventSurveyResponse).Inc()
	return &response, nil
}

// buildAnswers validates every answer against the survey and returns the rows to insert.
func (s *SurveyResponseService) buildAnswers(tx *gorm.DB, surveyID uint, answers []AnswerInput) ([]models.SurveyAnswer, error) {
	var questionIDs []uint
	if err := tx.Model(&models.SurveyQuestion{}).Where("survey_id = ?", surveyID).Pluck("id", &questionIDs).Error; err != nil {
		return nil, err
	}
	inSurvey := make(map[uint]bool, len(questionIDs))
	for _, id := range questionIDs {
		inSurvey[id] = true
	}

	var choices []models.SurveyChoice
	if len(questionIDs) > 0 {
		if err := tx.Select("id", "question_id").Where("question_id IN ?", questionIDs).Find(&choices).Error; err != nil {
			return nil, err
		}
	}
	choiceQuestion := make(map[uint]uint, len(choices))
	for _, c := range choices {
		choiceQuestion[c.ID] = c.QuestionID
	}

	seen := make(map[uint]bool, len(answers))
	rows := make([]models.SurveyAnswer, 0, len(answers))
	for _, a := range answers {
		if !inSurvey[a.QuestionID] {
			return nil, ErrSurveyAnswerInvalid
		}
		if seen[a.QuestionID] {
			return nil, ErrSurveyAnswerInvalid
		}
		seen[a.QuestionID] = true

		switch v := a.Answer.(type) {
		case models.ChoiceAnswer:
			if choiceQuestion[v.ChoiceID] != a.QuestionID {
				return nil, ErrSurveyAnswerInvalid
			}
		case models.TextAnswer:
		default:
			return nil, ErrSurveyAnswerInvalid
		}
		rows = append(rows, models.NewSurveyAnswer(a.QuestionID, a.Answer))
	}
	return rows, nil
}

// 4 DeleteResponse 所有者或管理员删除答复及其答案
func (s *SurveyResponseService) DeleteResponse(ctx context.Context, actor access.Actor, id uint) error {
	var response models.SurveyResponse
	if err := s.DB.WithContext(ctx).First(&response, id).Error; err != nil {
		return notFound(err, ErrSurveyResponseNotFound)
	}
	if err := access.RequireOwnerOrAdmin(actor, response.ResidentID); err != nil {
		return err
	}

	err := database.WithTransaction(ctx, s.DB, func(tx *gorm.DB) error {
		return deleteResponses(tx, []uint{id})
	})
	if err != nil {
		return err
	}

	invalidateResults(ctx, s.Cache, s.Log, response.SurveyID)
	return nil
}
