package services

import (
	"context"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InterfaceLockerItemService defines the locker item service interface
type InterfaceLockerItemService interface {
	GetAllLockerItems(ctx context.Context, actor access.Actor, page, pageSize int) ([]models.LockerItem, int64, error)
	GetLockerItemByID(ctx context.Context, actor access.Actor, id uint) (*models.LockerItem, error)
	CreateLockerItem(ctx context.Context, item *models.LockerItem) error
	UpdateLockerItem(ctx context.Context, id uint, update LockerItemUpdate) (*models.LockerItem, error)
	DeleteLockerItem(ctx context.Context, id uint) error
	ReceiveLockerItem(ctx context.Context, actor access.Actor, id uint) (*models.LockerItem, error)
}

// LockerItemUpdate 可更新的物品字段
type LockerItemUpdate struct {
	ItemName   *string
	ResidentID *uint
	Status     *models.LockerStatus
}

// LockerItemService 提供储物柜物品相关的服务
type LockerItemService struct {
	DB     *gorm.DB
	Config *config.Config
	Log    *zap.Logger
}

// NewLockerItemService 创建一个新的储物柜物品服务
func NewLockerItemService(db *gorm.DB, cfg *config.Config, log *zap.Logger) InterfaceLockerItemService {
	return &LockerItemService{
		DB:     db,
		Config: cfg,
		Log:    log,
	}
}

func (s *LockerItemService) visible(ctx context.Context, actor access.Actor) *gorm.DB {
	db := s.DB.WithContext(ctx).Model(&models.LockerItem{})
	if !actor.IsAdmin() {
		db = db.Where("resident_id = ?", actor.UserID)
	}
	return db
}

// 1 GetAllLockerItems 获取物品列表，住户只能看到自己的
func (s *LockerItemService) GetAllLockerItems(ctx context.Context, actor access.Actor, page, pageSize int) ([]models.LockerItem, int64, error) {
	var items []models.LockerItem
	var total int64

	if err := s.visible(ctx, actor).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.visible(ctx, actor).Preload("Resident").Scopes(newestFirst, Paginate(page, pageSize)).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// 2 GetLockerItemByID 根据ID获取物品
func (s *LockerItemService) GetLockerItemByID(ctx context.Context, actor access.Actor, id uint) (*models.LockerItem, error) {
	var item models.LockerItem
	if err := s.visible(ctx, actor).Preload("Resident").First(&item, id).Error; err != nil {
		return nil, notFound(err, ErrLockerItemNotFound)
	}
	return &item, nil
}

// 3 CreateLockerItem 登记新物品，状态为待领取
func (s *LockerItemService) CreateLockerItem(ctx context.Context, item *models.LockerItem) error {
	db := s.DB.WithContext(ctx)
	if err := checkUserExists(db, item.ResidentID); err != nil {
		return err
	}

	item.Status = models.LockerStatusPending
	item.Active = true
	return db.Create(item).Error
}

// 4 UpdateLockerItem 更新物品，状态只能从待领取变为已领取
func (s *LockerItemService) UpdateLockerItem(ctx context.Context, id uint, update LockerItemUpdate) (*models.LockerItem, error) {
	db := s.DB.WithContext(ctx)

	var item models.LockerItem
	if err := db.First(&item, id).Error; err != nil {
		return nil, notFound(err, ErrLockerItemNotFound)
	}

	updates := make(map[string]interface{})
	if update.ItemName != nil {
		updates["item_name"] = *update.ItemName
	}
	if update.ResidentID != nil {
		if err := checkUserExists(db, *update.ResidentID); err != nil {
			return nil, err
		}
		updates["resident_id"] = *update.ResidentID
	}
	if update.Status != nil && *update.Status != item.Status {
		if item.Status == models.LockerStatusReceived {
			return nil, ErrLockerItemReceived
		}
		if *update.Status != models.LockerStatusReceived {
			return nil, invalid("status must be pending or received")
		}
		updates["status"] = *update.Status
	}

	if len(updates) > 0 {
		if err := db.Model(&item).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if err := db.Preload("Resident").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// 5 DeleteLockerItem 删除物品
func (s *LockerItemService) DeleteLockerItem(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.LockerItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLockerItemNotFound
	}
	return nil
}

// 6 ReceiveLockerItem 物品所有者或管理员确认领取；重复领取直接返回当前物品，不写库
func (s *LockerItemService) ReceiveLockerItem(ctx context.Context, actor access.Actor, id uint) (*models.LockerItem, error) {
	db := s.DB.WithContext(ctx)

	var item models.LockerItem
	if err := db.Preload("Resident").First(&item, id).Error; err != nil {
		return nil, notFound(err, ErrLockerItemNotFound)
	}
	if err := access.RequireOwnerOrAdmin(actor, item.ResidentID); err != nil {
		return nil, err
	}

	if item.Status == models.LockerStatusReceived {
		return &item, nil
	}

	// 条件更新保证并发领取只写一次
	res := db.Model(&models.LockerItem{}).
		Where("id = ? AND status = ?", id, models.LockerStatusPending).
		Update("status", models.LockerStatusReceived)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		metrics.BusinessEvents.WithLabelValues(metrics.EventLockerReceived).Inc()
		s.Log.Info("locker item received", zap.Uint("item_id", id), zap.Uint("actor_id", actor.UserID))
	}

	if err := db.Preload("Resident").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func checkUserExists(db *gorm.DB, userID uint) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
