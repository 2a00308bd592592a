package services

import (
	"context"
	"errors"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/internal/infrastructure/database"
	"condo-http-service/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InterfaceApartmentService defines the apartment service interface
type InterfaceApartmentService interface {
	GetAllApartments(ctx context.Context, page, pageSize int) ([]models.Apartment, int64, error)
	GetApartmentByID(ctx context.Context, id uint) (*models.Apartment, error)
	CreateApartment(ctx context.Context, apartment *models.Apartment) error
	UpdateApartment(ctx context.Context, id uint, update ApartmentUpdate) (*models.Apartment, error)
	DeleteApartment(ctx context.Context, id uint) error
	TransferOwnership(ctx context.Context, actor access.Actor, apartmentID, newResidentID uint) (*models.Apartment, error)
}

// ApartmentUpdate 可更新的公寓字段，住户只能通过转让修改
type ApartmentUpdate struct {
	Number *string
	Floor  *int
	Active *bool
}

// ApartmentService 提供公寓相关的服务
type ApartmentService struct {
	DB     *gorm.DB
	Config *config.Config
	Log    *zap.Logger
}

// NewApartmentService 创建一个新的公寓服务
func NewApartmentService(db *gorm.DB, cfg *config.Config, log *zap.Logger) InterfaceApartmentService {
	return &ApartmentService{
		DB:     db,
		Config: cfg,
		Log:    log,
	}
}

func (s *ApartmentService) active(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Model(&models.Apartment{}).Where("apartments.active = ?", true)
}

// 1 GetAllApartments 获取所有启用的公寓
func (s *ApartmentService) GetAllApartments(ctx context.Context, page, pageSize int) ([]models.Apartment, int64, error) {
	var apartments []models.Apartment
	var total int64

	if err := s.active(ctx).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.active(ctx).Preload("Resident").Scopes(newestFirst, Paginate(page, pageSize)).Find(&apartments).Error; err != nil {
		return nil, 0, err
	}
	return apartments, total, nil
}

// 2 GetApartmentByID 根据ID获取启用的公寓
func (s *ApartmentService) GetApartmentByID(ctx context.Context, id uint) (*models.Apartment, error) {
	var apartment models.Apartment
	if err := s.active(ctx).Preload("Resident").First(&apartment, id).Error; err != nil {
		return nil, notFound(err, ErrApartmentNotFound)
	}
	return &apartment, nil
}

// 3 CreateApartment 创建公寓，可选地直接指定住户
func (s *ApartmentService) CreateApartment(ctx context.Context, apartment *models.Apartment) error {
	return database.WithTransaction(ctx, s.DB, func(tx *gorm.DB) error {
		if err := checkNumberFree(tx, apartment.Number, 0); err != nil {
			return err
		}

		if apartment.ResidentID != nil {
			if _, err := loadTransferTarget(tx, *apartment.ResidentID); err != nil {
				return err
			}
			if err := checkHoldsNoApartment(tx, *apartment.ResidentID, 0); err != nil {
				return err
			}
		}

		apartment.Active = true
		return duplicate(tx.Create(apartment).Error, ErrApartmentNumberExist)
	})
}

// 4 UpdateApartment 更新公寓编号、楼层或启用状态
func (s *ApartmentService) UpdateApartment(ctx context.Context, id uint, update ApartmentUpdate) (*models.Apartment, error) {
	db := s.DB.WithContext(ctx)

	var apartment models.Apartment
	if err := db.First(&apartment, id).Error; err != nil {
		return nil, notFound(err, ErrApartmentNotFound)
	}

	updates := make(map[string]interface{})
	if update.Number != nil && *update.Number != apartment.Number {
		if err := checkNumberFree(db, *update.Number, id); err != nil {
			return nil, err
		}
		updates["number"] = *update.Number
	}
	if update.Floor != nil {
		updates["floor"] = *update.Floor
	}
	if update.Active != nil {
		updates["active"] = *update.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&apartment).Updates(updates).Error; err != nil {
			return nil, duplicate(err, ErrApartmentNumberExist)
		}
	}

	if err := db.Preload("Resident").First(&apartment, id).Error; err != nil {
		return nil, err
	}
	return &apartment, nil
}

// 5 DeleteApartment 删除公寓
func (s *ApartmentService) DeleteApartment(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Apartment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrApartmentNotFound
	}
	return nil
}

// 6 TransferOwnership 将公寓转让给另一位住户，原住户账户被停用。
// 所有写入在同一事务中完成，任一步失败全部回滚。
func (s *ApartmentService) TransferOwnership(ctx context.Context, actor access.Actor, apartmentID, newResidentID uint) (*models.Apartment, error) {
	if err := access.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var previous *uint
	changed := false

	err := database.WithTransaction(ctx, s.DB, func(tx *gorm.DB) error {
		var apartment models.Apartment
		if err := database.LockForUpdate(tx).Where("active = ?", true).First(&apartment, apartmentID).Error; err != nil {
			return notFound(err, ErrApartmentNotFound)
		}

		target, err := loadTransferTarget(tx, newResidentID)
		if err != nil {
			return err
		}

		// 转给当前住户时不做任何修改
		if apartment.ResidentID != nil && *apartment.ResidentID == target.ID {
			return nil
		}

		if err := checkHoldsNoApartment(tx, target.ID, apartment.ID); err != nil {
			return err
		}

		if apartment.ResidentID != nil {
			previous = apartment.ResidentID
			if err := tx.Model(&models.User{}).Where("id = ?", *previous).Update("active", false).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&apartment).Update("resident_id", target.ID).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.BusinessEvents.WithLabelValues(metrics.EventOwnershipTransfer).Inc()
		fields := []zap.Field{
			zap.Uint("apartment_id", apartmentID),
			zap.Uint("new_resident_id", newResidentID),
			zap.Uint("actor_id", actor.UserID),
		}
		if previous != nil {
			fields = append(fields, zap.Uint("deactivated_resident_id", *previous))
		}
		s.Log.Info("apartment ownership transferred", fields...)
	}

	return s.GetApartmentByID(ctx, apartmentID)
}

// loadTransferTarget loads an active resident account or fails with ErrTransferTargetInvalid.
func loadTransferTarget(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	err := tx.Where("role = ? AND active = ?", models.RoleResident, true).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransferTargetInvalid
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// checkHoldsNoApartment fails when the resident already occupies an apartment other than exceptID.
func checkHoldsNoApartment(tx *gorm.DB, residentID, exceptID uint) error {
	var held int64
	if err := tx.Model(&models.Apartment{}).Where("resident_id = ? AND id <> ?", residentID, exceptID).Count(&held).Error; err != nil {
		return err
	}
	if held > 0 {
		return ErrResidentHasApartment
	}
	return nil
}

func checkNumberFree(tx *gorm.DB, number string, exceptID uint) error {
	var count int64
	if err := tx.Model(&models.Apartment{}).Where("number = ? AND id <> ?", number, exceptID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrApartmentNumberExist
	}
	return nil
}
