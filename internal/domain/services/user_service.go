package services

import (
	"context"
	"fmt"
	"io"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/internal/infrastructure/database"
	"condo-http-service/internal/infrastructure/storage"
	"condo-http-service/pkg/metrics"
	"condo-http-service/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InterfaceUserService defines the user service interface
type InterfaceUserService interface {
	GetAllUsers(ctx context.Context, page, pageSize int) ([]models.User, int64, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User, password string) error
	UpdateUser(ctx context.Context, id uint, update UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
	ChangePassword(ctx context.Context, actor access.Actor, oldPassword, newPassword string) error
	UpdateAvatar(ctx context.Context, actor access.Actor, filename string, r io.Reader) (*models.User, error)
}

// UserUpdate 可更新的用户字段，nil 表示不修改
type UserUpdate struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Role        *models.Role
	Active      *bool
}

// UserService 提供用户相关的服务
type UserService struct {
	DB     *gorm.DB
	Config *config.Config
	Store  storage.BlobStore
	Cache  InterfaceRedisService
	Log    *zap.Logger
}

// NewUserService 创建一个新的用户服务
func NewUserService(db *gorm.DB, cfg *config.Config, store storage.BlobStore, cache InterfaceRedisService, log *zap.Logger) InterfaceUserService {
	return &UserService{
		DB:     db,
		Config: cfg,
		Store:  store,
		Cache:  cache,
		Log:    log,
	}
}

// 1 GetAllUsers 获取所有启用的用户
func (s *UserService) GetAllUsers(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := func() *gorm.DB {
		return s.DB.WithContext(ctx).Model(&models.User{}).Where("active = ?", true)
	}
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query().Scopes(newestFirst, Paginate(page, pageSize)).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// 2 GetUserByID 根据ID获取启用的用户
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("active = ?", true).First(&user, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

// 3 CreateUser 创建用户，密码以 bcrypt 哈希保存
func (s *UserService) CreateUser(ctx context.Context, user *models.User, password string) error {
	if !user.Role.Valid() {
		return ErrInvalidRole
	}
	if password == "" {
		return invalid("password is required")
	}

	db := s.DB.WithContext(ctx)

	// 验证用户名唯一性
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserAlreadyExist
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = hash
	user.Active = true

	return duplicate(db.Create(user).Error, ErrUserAlreadyExist)
}

// 4 UpdateUser 更新用户资料，角色创建后不可修改
func (s *UserService) UpdateUser(ctx context.Context, id uint, update UserUpdate) (*models.User, error) {
	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	if update.Role != nil && *update.Role != user.Role {
		return nil, ErrRoleImmutable
	}

	updates := make(map[string]interface{})
	if update.FirstName != nil {
		updates["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		updates["last_name"] = *update.LastName
	}
	if update.Email != nil {
		updates["email"] = *update.Email
	}
	if update.PhoneNumber != nil {
		updates["phone_number"] = *update.PhoneNumber
	}
	if update.Active != nil {
		updates["active"] = *update.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if err := db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// 5 DeleteUser 删除用户及其账单、储物柜物品、投诉、问卷答复和创建的问卷
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	var touched []uint

	err := database.WithTransaction(ctx, s.DB, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}

		var responses []models.SurveyResponse
		if err := tx.Select("id", "survey_id").Where("resident_id = ?", id).Find(&responses).Error; err != nil {
			return err
		}
		responseIDs := make([]uint, 0, len(responses))
		for _, r := range responses {
			responseIDs = append(responseIDs, r.ID)
			touched = append(touched, r.SurveyID)
		}
		if err := deleteResponses(tx, responseIDs); err != nil {
			return err
		}

		var surveyIDs []uint
		if err := tx.Model(&models.Survey{}).Where("created_by_id = ?", id).Pluck("id", &surveyIDs).Error; err != nil {
			return err
		}
		if err := deleteSurveyTree(tx, surveyIDs); err != nil {
			return err
		}
		touched = append(touched, surveyIDs...)

		for _, m := range []interface{}{&models.Invoice{}, &models.LockerItem{}, &models.Complaint{}} {
			if err := tx.Where("resident_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}

		// 公寓只解除关联
		if err := tx.Model(&models.Apartment{}).Where("resident_id = ?", id).Update("resident_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		return err
	}

	for _, surveyID := range touched {
		invalidateResults(ctx, s.Cache, s.Log, surveyID)
	}
	return nil
}

// 6 ChangePassword 校验旧密码后替换为新密码
func (s *UserService) ChangePassword(ctx context.Context, actor access.Actor, oldPassword, newPassword string) error {
	if !actor.Authenticated() {
		return access.ErrUnauthenticated
	}
	if newPassword == "" {
		return invalid("new password is required")
	}

	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.First(&user, actor.UserID).Error; err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if !utils.CheckPasswordHash(oldPassword, user.Password) {
		return ErrOldPasswordIncorrect
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := db.Model(&user).Update("password", hash).Error; err != nil {
		return err
	}

	metrics.BusinessEvents.WithLabelValues(metrics.EventPasswordChanged).Inc()
	return nil
}

// 7 UpdateAvatar 保存头像文件并替换旧头像
func (s *UserService) UpdateAvatar(ctx context.Context, actor access.Actor, filename string, r io.Reader) (*models.User, error) {
	if !actor.Authenticated() {
		return nil, access.ErrUnauthenticated
	}

	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.First(&user, actor.UserID).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	rel, err := s.Store.Save(storage.CategoryAvatars, filename, r)
	if err != nil {
		return nil, err
	}

	old := user.Avatar
	if err := db.Model(&user).Update("avatar", rel).Error; err != nil {
		_ = s.Store.Remove(rel)
		return nil, err
	}
	user.Avatar = rel
	if err := s.Store.Remove(old); err != nil {
		s.Log.Warn("remove old avatar failed", zap.String("path", old), zap.Error(err))
	}
	return &user, nil
}
