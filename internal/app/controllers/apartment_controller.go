package controllers

import (
	"net/http"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/domain/services"
	"condo-http-service/internal/domain/services/container"
	"condo-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// ApartmentRules 公寓接口：读取公开，其余仅管理员
var ApartmentRules = access.Rules{
	access.ActionList:     {access.AdminOrReadOnly},
	access.ActionRetrieve: {access.AdminOrReadOnly},
	access.ActionCreate:   {access.AdminOrReadOnly},
	access.ActionUpdate:   {access.AdminOrReadOnly},
	access.ActionDestroy:  {access.AdminOrReadOnly},
	access.ActionTransfer: {access.AdminOrReadOnly},
}

var apartmentActions = map[string]access.Action{
	"getApartments":     access.ActionList,
	"getApartment":      access.ActionRetrieve,
	"createApartment":   access.ActionCreate,
	"updateApartment":   access.ActionUpdate,
	"deleteApartment":   access.ActionDestroy,
	"transferOwnership": access.ActionTransfer,
}

// InterfaceApartmentController 定义公寓控制器接口
type InterfaceApartmentController interface {
	GetApartments()
	GetApartment()
	CreateApartment()
	UpdateApartment()
	DeleteApartment()
	TransferOwnership()
}

// ApartmentController 处理公寓相关的请求
type ApartmentController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
	Actor     access.Actor
}

// NewApartmentController 创建一个新的公寓控制器
func NewApartmentController(ctx *gin.Context, container *container.ServiceContainer, actor access.Actor) *ApartmentController {
	return &ApartmentController{
		Ctx:       ctx,
		Container: container,
		Actor:     actor,
	}
}

// ApartmentRequest 表示创建公寓请求
type ApartmentRequest struct {
	Number     string `json:"number" binding:"required,max=50" example:"A-101"`
	Floor      *int   `json:"floor" binding:"omitempty,gte=0" example:"1"`
	ResidentID *uint  `json:"resident" example:"2"`
}

// UpdateApartmentRequest 表示更新公寓请求，住户只能通过转让修改
type UpdateApartmentRequest struct {
	Number *string `json:"number" binding:"omitempty,max=50"`
	Floor  *int    `json:"floor" binding:"omitempty,gte=0"`
	Active *bool   `json:"active"`
}

// TransferOwnershipRequest 表示转让请求
type TransferOwnershipRequest struct {
	NewResidentID uint `json:"new_resident_id" binding:"required" example:"3"`
}

// HandleApartmentFunc 返回一个处理公寓请求的Gin处理函数
func HandleApartmentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		action, ok := apartmentActions[method]
		if !ok {
			invalidMethod(ctx)
			return
		}
		actor, ok := authorize(ctx, ApartmentRules, action)
		if !ok {
			return
		}
		controller := NewApartmentController(ctx, container, actor)

		switch method {
		case "getApartments":
			controller.GetApartments()
		case "getApartment":
			controller.GetApartment()
		case "createApartment":
			controller.CreateApartment()
		case "updateApartment":
			controller.UpdateApartment()
		case "deleteApartment":
			controller.DeleteApartment()
		case "transferOwnership":
			controller.TransferOwnership()
		}
	}
}

func (c *ApartmentController) service() services.InterfaceApartmentService {
	return c.Container.GetService("apartment").(services.InterfaceApartmentService)
}

// GetApartments 获取公寓列表
// @Summary      获取公寓列表
// @Description  只返回启用的公寓
// @Tags         Apartment
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为5，最大50"
// @Success      200  {object}  response.Response{data=response.PageData}
// @Router       /apartments [get]
func (c *ApartmentController) GetApartments() {
	page, pageSize := pageParams(c.Ctx, c.Container)
	apartments, total, err := c.service().GetAllApartments(c.Ctx.Request.Context(), page, pageSize)
	if err != nil {
		handleError(c.Ctx, c.Container, "getApartments", err)
		return
	}
	response.Page(c.Ctx, apartments, total, page, pageSize)
}

// GetApartment 获取单个公寓
// @Summary      获取公寓详情
// @Tags         Apartment
// @Produce      json
// @Param        id path int true "公寓ID"
// @Success      200  {object}  response.Response{data=models.Apartment}
// @Failure      404  {object}  ErrorResponse
// @Router       /apartments/{id} [get]
func (c *ApartmentController) GetApartment() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	apartment, err := c.service().GetApartmentByID(c.Ctx.Request.Context(), id)
	if err != nil {
		handleError(c.Ctx, c.Container, "getApartment", err)
		return
	}
	response.Success(c.Ctx, apartment)
}

// CreateApartment 创建公寓
// @Summary      创建公寓
// @Tags         Apartment
// @Accept       json
// @Produce      json
// @Param        request body ApartmentRequest true "公寓信息"
// @Security     BearerAuth
// @Success      201  {object}  response.Response{data=models.Apartment}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /apartments [post]
func (c *ApartmentController) CreateApartment() {
	var req ApartmentRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	// 未提供楼层时默认为 1，显式的 0 表示底层
	floor := models.DefaultApartmentFloor
	if req.Floor != nil {
		floor = *req.Floor
	}

	apartment := &models.Apartment{
		Number:     req.Number,
		Floor:      floor,
		ResidentID: req.ResidentID,
	}
	if err := c.service().CreateApartment(c.Ctx.Request.Context(), apartment); err != nil {
		handleError(c.Ctx, c.Container, "createApartment", err)
		return
	}

	created, err := c.service().GetApartmentByID(c.Ctx.Request.Context(), apartment.ID)
	if err != nil {
		handleError(c.Ctx, c.Container, "createApartment", err)
		return
	}
	response.Created(c.Ctx, created)
}

// UpdateApartment 更新公寓
// @Summary      更新公寓
// @Tags         Apartment
// @Accept       json
// @Produce      json
// @Param        id path int true "公寓ID"
// @Param        request body UpdateApartmentRequest true "更新的字段"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.Apartment}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /apartments/{id} [put]
func (c *ApartmentController) UpdateApartment() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req UpdateApartmentRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	apartment, err := c.service().UpdateApartment(c.Ctx.Request.Context(), id, services.ApartmentUpdate{
		Number: req.Number,
		Floor:  req.Floor,
		Active: req.Active,
	})
	if err != nil {
		handleError(c.Ctx, c.Container, "updateApartment", err)
		return
	}
	response.Success(c.Ctx, apartment)
}

// DeleteApartment 删除公寓
// @Summary      删除公寓
// @Tags         Apartment
// @Param        id path int true "公寓ID"
// @Security     BearerAuth
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /apartments/{id} [delete]
func (c *ApartmentController) DeleteApartment() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteApartment(c.Ctx.Request.Context(), id); err != nil {
		handleError(c.Ctx, c.Container, "deleteApartment", err)
		return
	}
	c.Ctx.Status(http.StatusNoContent)
}

// TransferOwnership 转让公寓
// @Summary      转让公寓
// @Description  在一个事务中停用原住户并把公寓转给新住户
// @Tags         Apartment
// @Accept       json
// @Produce      json
// @Param        id path int true "公寓ID"
// @Param        request body TransferOwnershipRequest true "新住户ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.Apartment}
// @Failure      400  {object}  ErrorResponse "目标用户不存在或不是住户"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "目标住户已拥有公寓"
// @Router       /apartments/{id}/transfer-ownership [post]
func (c *ApartmentController) TransferOwnership() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req TransferOwnershipRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	apartment, err := c.service().TransferOwnership(c.Ctx.Request.Context(), c.Actor, id, req.NewResidentID)
	if err != nil {
		handleError(c.Ctx, c.Container, "transferOwnership", err)
		return
	}
	response.Success(c.Ctx, apartment)
}
