package services

import (
	"context"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/infrastructure/config"

	"gorm.io/gorm"
)

// InterfaceComplaintService defines the complaint service interface
type InterfaceComplaintService interface {
	GetAllComplaints(ctx context.Context, actor access.Actor, page, pageSize int) ([]models.Complaint, int64, error)
	GetComplaintByID(ctx context.Context, actor access.Actor, id uint) (*models.Complaint, error)
	CreateComplaint(ctx context.Context, actor access.Actor, complaint *models.Complaint) error
	UpdateComplaint(ctx context.Context, actor access.Actor, id uint, update ComplaintUpdate) (*models.Complaint, error)
	DeleteComplaint(ctx context.Context, actor access.Actor, id uint) error
}

// ComplaintUpdate 可更新的投诉字段
type ComplaintUpdate struct {
	Title         *string
	Content       *string
	ResolveStatus *models.ComplaintStatus
}

// ComplaintService 提供投诉相关的服务
type ComplaintService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewComplaintService 创建一个新的投诉服务
func NewComplaintService(db *gorm.DB, cfg *config.Config) InterfaceComplaintService {
	return &ComplaintService{
		DB:     db,
		Config: cfg,
	}
}

// visible 每次请求根据调用者重新计算可见范围
func (s *ComplaintService) visible(ctx context.Context, actor access.Actor) *gorm.DB {
	db := s.DB.WithContext(ctx).Model(&models.Complaint{})
	if !actor.IsAdmin() {
		db = db.Where("resident_id = ?", actor.UserID)
	}
	return db
}

// 1 GetAllComplaints 管理员看到全部投诉，住户只看到自己的
func (s *ComplaintService) GetAllComplaints(ctx context.Context, actor access.Actor, page, pageSize int) ([]models.Complaint, int64, error) {
	if !actor.Authenticated() {
		return nil, 0, access.ErrUnauthenticated
	}

	var complaints []models.Complaint
	var total int64

	if err := s.visible(ctx, actor).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.visible(ctx, actor).Preload("Resident").Scopes(newestFirst, Paginate(page, pageSize)).Find(&complaints).Error; err != nil {
		return nil, 0, err
	}
	return complaints, total, nil
}

// 2 GetComplaintByID 住户查看他人的投诉返回不存在
func (s *ComplaintService) GetComplaintByID(ctx context.Context, actor access.Actor, id uint) (*models.Complaint, error) {
	if !actor.Authenticated() {
		return nil, access.ErrUnauthenticated
	}

	var complaint models.Complaint
	if err := s.visible(ctx, actor).Preload("Resident").First(&complaint, id).Error; err != nil {
		return nil, notFound(err, ErrComplaintNotFound)
	}
	return &complaint, nil
}

// 3 CreateComplaint 创建投诉，住户为当前调用者
func (s *ComplaintService) CreateComplaint(ctx context.Context, actor access.Actor, complaint *models.Complaint) error {
	if !actor.Authenticated() {
		return access.ErrUnauthenticated
	}

	complaint.ResidentID = actor.UserID
	complaint.ResolveStatus = models.ComplaintStatusOpen
	complaint.Active = true
	return s.DB.WithContext(ctx).Create(complaint).Error
}

// 4 UpdateComplaint 所有者或管理员可以修改，只有管理员可以修改处理状态
func (s *ComplaintService) UpdateComplaint(ctx context.Context, actor access.Actor, id uint, update ComplaintUpdate) (*models.Complaint, error) {
	complaint, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.Content != nil {
		updates["content"] = *update.Content
	}
	if update.ResolveStatus != nil && *update.ResolveStatus != complaint.ResolveStatus {
		if !actor.IsAdmin() {
			return nil, ErrComplaintStatusForbidden
		}
		switch *update.ResolveStatus {
		case models.ComplaintStatusOpen, models.ComplaintStatusInProgress, models.ComplaintStatusClosed:
		default:
			return nil, invalid("resolve_status must be open, in_progress or closed")
		}
		updates["resolve_status"] = *update.ResolveStatus
	}

	db := s.DB.WithContext(ctx)
	if len(updates) > 0 {
		if err := db.Model(complaint).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if err := db.Preload("Resident").First(complaint, id).Error; err != nil {
		return nil, err
	}
	return complaint, nil
}

// 5 DeleteComplaint 所有者或管理员可以删除
func (s *ComplaintService) DeleteComplaint(ctx context.Context, actor access.Actor, id uint) error {
	complaint, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Delete(complaint).Error
}

// loadOwned 加载投诉并检查所有者；不存在返回 404，非所有者返回 403
func (s *ComplaintService) loadOwned(ctx context.Context, actor access.Actor, id uint) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := s.DB.WithContext(ctx).First(&complaint, id).Error; err != nil {
		return nil, notFound(err, ErrComplaintNotFound)
	}
	if err := access.RequireOwnerOrAdmin(actor, complaint.ResidentID); err != nil {
		return nil, err
	}
	return &complaint, nil
}
