package services

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/internal/infrastructure/storage"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MonthYearPattern 账单周期格式 MM/YYYY
var MonthYearPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{4}$`)

// InterfaceInvoiceService defines the invoice service interface
type InterfaceInvoiceService interface {
	GetAllInvoices(ctx context.Context, actor access.Actor, page, pageSize int) ([]models.Invoice, int64, error)
	GetInvoiceByID(ctx context.Context, actor access.Actor, id uint) (*models.Invoice, error)
	CreateInvoice(ctx context.Context, actor access.Actor, invoice *models.Invoice) error
	UpdateInvoice(ctx context.Context, actor access.Actor, id uint, update InvoiceUpdate) (*models.Invoice, error)
	DeleteInvoice(ctx context.Context, actor access.Actor, id uint) error
	UploadProof(ctx context.Context, actor access.Actor, id uint, filename string, r io.Reader) (*models.Invoice, error)
	ExportInvoices(ctx context.Context, actor access.Actor, w io.Writer) error
	GetPaymentTotal(ctx context.Context, actor access.Actor, userID uint) (float64, error)
}

// InvoiceUpdate 可更新的账单字段，nil 表示不修改
type InvoiceUpdate struct {
	MonthYear *string
	Amount    *float64
	PayMethod *models.PayMethod
	PayStatus *models.InvoiceStatus
}

// InvoiceService 提供账单相关的服务
type InvoiceService struct {
	DB     *gorm.DB
	Config *config.Config
	Store  storage.BlobStore
	Log    *zap.Logger
}

// NewInvoiceService 创建一个新的账单服务
func NewInvoiceService(db *gorm.DB, cfg *config.Config, store storage.BlobStore, log *zap.Logger) InterfaceInvoiceService {
	return &InvoiceService{
		DB:     db,
		Config: cfg,
		Store:  store,
		Log:    log,
	}
}

// visible 住户只能看到自己的账单，管理员看到全部
func (s *InvoiceService) visible(ctx context.Context, actor access.Actor) *gorm.DB {
	db := s.DB.WithContext(ctx).Model(&models.Invoice{})
	if !actor.IsAdmin() {
		db = db.Where("resident_id = ?", actor.UserID)
	}
	return db
}

// 1 GetAllInvoices 获取账单列表
func (s *InvoiceService) GetAllInvoices(ctx context.Context, actor access.Actor, page, pageSize int) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice
	var total int64

	if err := s.visible(ctx, actor).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.visible(ctx, actor).Preload("Resident").Scopes(newestFirst, Paginate(page, pageSize)).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// 2 GetInvoiceByID 根据ID获取账单
func (s *InvoiceService) GetInvoiceByID(ctx context.Context, actor access.Actor, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.visible(ctx, actor).Preload("Resident").First(&invoice, id).Error; err != nil {
		return nil, notFound(err, ErrInvoiceNotFound)
	}
	return &invoice, nil
}

// 3 CreateInvoice 创建账单，住户为当前调用者
func (s *InvoiceService) CreateInvoice(ctx context.Context, actor access.Actor, invoice *models.Invoice) error {
	if !actor.Authenticated() {
		return access.ErrUnauthenticated
	}
	if invoice.PayStatus != "" && invoice.PayStatus != models.InvoiceStatusPending && !actor.IsAdmin() {
		return ErrInvoiceStatusForbidden
	}

	invoice.ResidentID = actor.UserID
	invoice.Active = true
	if invoice.PayStatus == "" {
		invoice.PayStatus = models.InvoiceStatusPending
	}
	if err := validateInvoice(invoice); err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Create(invoice).Error; err != nil {
		return err
	}
	return nil
}

// 4 UpdateInvoice 更新账单，只有管理员可以修改支付状态
func (s *InvoiceService) UpdateInvoice(ctx context.Context, actor access.Actor, id uint, update InvoiceUpdate) (*models.Invoice, error) {
	invoice, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if update.PayStatus != nil && *update.PayStatus != invoice.PayStatus && !actor.IsAdmin() {
		return nil, ErrInvoiceStatusForbidden
	}

	if update.MonthYear != nil {
		invoice.MonthYear = *update.MonthYear
	}
	if update.Amount != nil {
		invoice.Amount = *update.Amount
	}
	if update.PayMethod != nil {
		invoice.PayMethod = *update.PayMethod
	}
	if update.PayStatus != nil {
		invoice.PayStatus = *update.PayStatus
	}
	if err := validateInvoice(invoice); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	if err := db.Model(invoice).Select("month_year", "amount", "pay_method", "pay_status").Updates(invoice).Error; err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

// 5 DeleteInvoice 删除账单及其支付凭证
func (s *InvoiceService) DeleteInvoice(ctx context.Context, actor access.Actor, id uint) error {
	invoice, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(invoice).Error; err != nil {
		return err
	}
	if err := s.Store.Remove(invoice.PayProof); err != nil {
		s.Log.Warn("remove payment proof failed", zap.String("path", invoice.PayProof), zap.Error(err))
	}
	return nil
}

// 6 UploadProof 上传支付凭证，替换旧文件
func (s *InvoiceService) UploadProof(ctx context.Context, actor access.Actor, id uint, filename string, r io.Reader) (*models.Invoice, error) {
	invoice, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	rel, err := s.Store.Save(storage.CategoryPayments, filename, r)
	if err != nil {
		return nil, err
	}

	old := invoice.PayProof
	if err := s.DB.WithContext(ctx).Model(invoice).Update("pay_proof", rel).Error; err != nil {
		_ = s.Store.Remove(rel)
		return nil, err
	}
	if err := s.Store.Remove(old); err != nil {
		s.Log.Warn("remove payment proof failed", zap.String("path", old), zap.Error(err))
	}
	return s.reload(ctx, id)
}

// 7 ExportInvoices 导出全部账单为 xlsx，仅管理员可用
func (s *InvoiceService) ExportInvoices(ctx context.Context, actor access.Actor, w io.Writer) error {
	if err := access.RequireAdmin(actor); err != nil {
		return err
	}

	var invoices []models.Invoice
	if err := s.DB.WithContext(ctx).Preload("Resident").Scopes(newestFirst).Find(&invoices).Error; err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Invoices"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headers := []interface{}{"ID", "Resident", "Month", "Amount", "Pay Method", "Pay Status", "Pay Proof", "Created At"}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, inv := range invoices {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			inv.ID,
			inv.ResidentName,
			inv.MonthYear,
			inv.Amount,
			string(inv.PayMethod),
			string(inv.PayStatus),
			s.Store.URL(inv.PayProof),
			inv.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// 8 GetPaymentTotal 统计某个住户所有账单的金额合计
func (s *InvoiceService) GetPaymentTotal(ctx context.Context, actor access.Actor, userID uint) (float64, error) {
	if err := access.RequireOwnerOrAdmin(actor, userID); err != nil {
		return 0, err
	}

	var total float64
	err := s.DB.WithContext(ctx).Model(&models.Invoice{}).
		Where("resident_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// loadOwned 加载账单并检查所有者；不存在返回 404，非所有者返回 403
func (s *InvoiceService) loadOwned(ctx context.Context, actor access.Actor, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.DB.WithContext(ctx).First(&invoice, id).Error; err != nil {
		return nil, notFound(err, ErrInvoiceNotFound)
	}
	if err := access.RequireOwnerOrAdmin(actor, invoice.ResidentID); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *InvoiceService) reload(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.DB.WithContext(ctx).Preload("Resident").First(&invoice, id).Error; err != nil {
		return nil, notFound(err, ErrInvoiceNotFound)
	}
	return &invoice, nil
}

func validateInvoice(invoice *models.Invoice) error {
	if !MonthYearPattern.MatchString(invoice.MonthYear) {
		return invalid("month_year must be formatted as MM/YYYY")
	}
	if invoice.Amount < 0 {
		return invalid("amount must not be negative")
	}
	switch invoice.PayMethod {
	case models.PayMethodTransfer, models.PayMethodOnline:
	default:
		return invalid("pay_method must be transfer or online")
	}
	switch invoice.PayStatus {
	case models.InvoiceStatusPending, models.InvoiceStatusConfirmed, models.InvoiceStatusRejected:
	default:
		return invalid("pay_status must be pending, confirmed or rejected")
	}
	return nil
}
