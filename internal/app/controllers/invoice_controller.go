package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/domain/services"
	"condo-http-service/internal/domain/services/container"
	"condo-http-service/internal/error/code"
	"condo-http-service/internal/error/response"
	"condo-http-service/internal/infrastructure/storage"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InvoiceRules 账单接口：已登录用户可用，修改和删除还需是所有者或管理员
var InvoiceRules = access.Rules{
	access.ActionList:        {access.Authenticated},
	access.ActionRetrieve:    {access.Authenticated},
	access.ActionCreate:      {access.Authenticated},
	access.ActionUpdate:      {access.Authenticated, access.OwnerOrAdmin},
	access.ActionDestroy:     {access.Authenticated, access.OwnerOrAdmin},
	access.ActionUploadProof: {access.Authenticated, access.OwnerOrAdmin},
	access.ActionExport:      {access.AdminOrReadOnly},
}

var invoiceActions = map[string]access.Action{
	"getInvoices":    access.ActionList,
	"getInvoice":     access.ActionRetrieve,
	"createInvoice":  access.ActionCreate,
	"updateInvoice":  access.ActionUpdate,
	"deleteInvoice":  access.ActionDestroy,
	"uploadProof":    access.ActionUploadProof,
	"exportInvoices": access.ActionExport,
}

// InterfaceInvoiceController 定义账单控制器接口
type InterfaceInvoiceController interface {
	GetInvoices()
	GetInvoice()
	CreateInvoice()
	UpdateInvoice()
	DeleteInvoice()
	UploadProof()
	ExportInvoices()
}

// InvoiceController 处理账单相关的请求
type InvoiceController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
	Actor     access.Actor
}

// NewInvoiceController 创建一个新的账单控制器
func NewInvoiceController(ctx *gin.Context, container *container.ServiceContainer, actor access.Actor) *InvoiceController {
	return &InvoiceController{
		Ctx:       ctx,
		Container: container,
		Actor:     actor,
	}
}

// InvoiceRequest 表示创建账单请求，住户为当前登录用户
type InvoiceRequest struct {
	MonthYear string  `json:"month_year" binding:"required,month_year" example:"01/2024"`
	Amount    float64 `json:"amount" binding:"gte=0" example:"350.00"`
	PayMethod string  `json:"pay_method" binding:"required,oneof=transfer online" example:"transfer"`
	PayStatus string  `json:"pay_status" binding:"omitempty,oneof=pending confirmed rejected" example:"pending"`
}

// UpdateInvoiceRequest 表示更新账单请求，只有管理员可以修改支付状态
type UpdateInvoiceRequest struct {
	MonthYear *string  `json:"month_year" binding:"omitempty,month_year"`
	Amount    *float64 `json:"amount" binding:"omitempty,gte=0"`
	PayMethod *string  `json:"pay_method" binding:"omitempty,oneof=transfer online"`
	PayStatus *string  `json:"pay_status" binding:"omitempty,oneof=pending confirmed rejected"`
}

// HandleInvoiceFunc 返回一个处理账单请求的Gin处理函数
func HandleInvoiceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		action, ok := invoiceActions[method]
		if !ok {
			invalidMethod(ctx)
			return
		}
		actor, ok := authorize(ctx, InvoiceRules, action)
		if !ok {
			return
		}
		controller := NewInvoiceController(ctx, container, actor)

		switch method {
		case "getInvoices":
			controller.GetInvoices()
		case "getInvoice":
			controller.GetInvoice()
		case "createInvoice":
			controller.CreateInvoice()
		case "updateInvoice":
			controller.UpdateInvoice()
		case "deleteInvoice":
			controller.DeleteInvoice()
		case "uploadProof":
			controller.UploadProof()
		case "exportInvoices":
			controller.ExportInvoices()
		}
	}
}

func (c *InvoiceController) service() services.InterfaceInvoiceService {
	return c.Container.GetService("invoice").(services.InterfaceInvoiceService)
}

func (c *InvoiceController) present(invoices ...*models.Invoice) {
	store, ok := c.Container.GetService("store").(storage.BlobStore)
	if !ok {
		return
	}
	for _, inv := range invoices {
		inv.PayProofURL = store.URL(inv.PayProof)
	}
}

// GetInvoices 获取账单列表
// @Summary      获取账单列表
// @Description  管理员看到全部账单，住户只看到自己的
// @Tags         Invoice
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为5，最大50"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=response.PageData}
// @Failure      401  {object}  ErrorResponse
// @Router       /invoices [get]
func (c *InvoiceController) GetInvoices() {
	page, pageSize := pageParams(c.Ctx, c.Container)
	invoices, total, err := c.service().GetAllInvoices(c.Ctx.Request.Context(), c.Actor, page, pageSize)
	if err != nil {
		handleError(c.Ctx, c.Container, "getInvoices", err)
		return
	}
	for i := range invoices {
		c.present(&invoices[i])
	}
	response.Page(c.Ctx, invoices, total, page, pageSize)
}

// GetInvoice 获取单个账单
// @Summary      获取账单详情
// @Tags         Invoice
// @Produce      json
// @Param        id path int true "账单ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.Invoice}
// @Failure      404  {object}  ErrorResponse
// @Router       /invoices/{id} [get]
func (c *InvoiceController) GetInvoice() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	invoice, err := c.service().GetInvoiceByID(c.Ctx.Request.Context(), c.Actor, id)
	if err != nil {
		handleError(c.Ctx, c.Container, "getInvoice", err)
		return
	}
	c.present(invoice)
	response.Success(c.Ctx, invoice)
}

// CreateInvoice 创建账单
// @Summary      创建账单
// @Description  账单属于当前登录用户
// @Tags         Invoice
// @Accept       json
// @Produce      json
// @Param        request body InvoiceRequest true "账单信息"
// @Security     BearerAuth
// @Success      201  {object}  response.Response{data=models.Invoice}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "住户不能设置支付状态"
// @Router       /invoices [post]
func (c *InvoiceController) CreateInvoice() {
	var req InvoiceRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	invoice := &models.Invoice{
		MonthYear: req.MonthYear,
		Amount:    req.Amount,
		PayMethod: models.PayMethod(req.PayMethod),
		PayStatus: models.InvoiceStatus(req.PayStatus),
	}
	if err := c.service().CreateInvoice(c.Ctx.Request.Context(), c.Actor, invoice); err != nil {
		handleError(c.Ctx, c.Container, "createInvoice", err)
		return
	}

	created, err := c.service().GetInvoiceByID(c.Ctx.Request.Context(), c.Actor, invoice.ID)
	if err != nil {
		handleError(c.Ctx, c.Container, "createInvoice", err)
		return
	}
	c.present(created)
	response.Created(c.Ctx, created)
}

// UpdateInvoice 更新账单
// @Summary      更新账单
// @Tags         Invoice
// @Accept       json
// @Produce      json
// @Param        id path int true "账单ID"
// @Param        request body UpdateInvoiceRequest true "更新的字段"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.Invoice}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /invoices/{id} [put]
func (c *InvoiceController) UpdateInvoice() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req UpdateInvoiceRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	update := services.InvoiceUpdate{
		MonthYear: req.MonthYear,
		Amount:    req.Amount,
	}
	if req.PayMethod != nil {
		m := models.PayMethod(*req.PayMethod)
		update.PayMethod = &m
	}
	if req.PayStatus != nil {
		s := models.InvoiceStatus(*req.PayStatus)
		update.PayStatus = &s
	}

	invoice, err := c.service().UpdateInvoice(c.Ctx.Request.Context(), c.Actor, id, update)
	if err != nil {
		handleError(c.Ctx, c.Container, "updateInvoice", err)
		return
	}
	c.present(invoice)
	response.Success(c.Ctx, invoice)
}

// DeleteInvoice 删除账单
// @Summary      删除账单
// @Tags         Invoice
// @Param        id path int true "账单ID"
// @Security     BearerAuth
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /invoices/{id} [delete]
func (c *InvoiceController) DeleteInvoice() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteInvoice(c.Ctx.Request.Context(), c.Actor, id); err != nil {
		handleError(c.Ctx, c.Container, "deleteInvoice", err)
		return
	}
	c.Ctx.Status(http.StatusNoContent)
}

// UploadProof 上传支付凭证
// @Summary      上传支付凭证
// @Tags         Invoice
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path int true "账单ID"
// @Param        file formData file true "支付凭证"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.Invoice}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /invoices/{id}/proof [post]
func (c *InvoiceController) UploadProof() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	fh, err := c.Ctx.FormFile("file")
	if err != nil {
		response.Fail(c.Ctx, code.ErrFileMissing, nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Fail(c.Ctx, code.ErrFileStore, nil)
		return
	}
	defer f.Close()

	invoice, err := c.service().UploadProof(c.Ctx.Request.Context(), c.Actor, id, fh.Filename, f)
	if err != nil {
		handleError(c.Ctx, c.Container, "uploadProof", err)
		return
	}
	c.present(invoice)
	response.Success(c.Ctx, invoice)
}

// ExportInvoices 导出账单
// @Summary      导出账单
// @Description  仅管理员可用，返回 xlsx 文件
// @Tags         Invoice
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200  {file}  file
// @Failure      403  {object}  ErrorResponse
// @Router       /invoices/export [get]
func (c *InvoiceController) ExportInvoices() {
	var buf bytes.Buffer
	if err := c.service().ExportInvoices(c.Ctx.Request.Context(), c.Actor, &buf); err != nil {
		handleError(c.Ctx, c.Container, "exportInvoices", err)
		return
	}

	filename := fmt.Sprintf("invoices_%s.xlsx", time.Now().Format("20060102"))
	c.Ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
