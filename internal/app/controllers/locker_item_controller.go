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

// LockerItemRules 储物柜接口：登记和修改仅管理员，领取由物品所有者或管理员完成
var LockerItemRules = access.Rules{
	access.ActionList:     {access.Authenticated},
	access.ActionRetrieve: {access.Authenticated},
	access.ActionCreate:   {access.Authenticated, access.AdminOrReadOnly},
	access.ActionUpdate:   {access.Authenticated, access.AdminOrReadOnly},
	access.ActionDestroy:  {access.Authenticated, access.AdminOrReadOnly},
	access.ActionReceive:  {access.Authenticated, access.OwnerOrAdmin},
}

var lockerItemActions = map[string]access.Action{
	"getLockerItems":    access.ActionList,
	"getLockerItem":     access.ActionRetrieve,
	"createLockerItem":  access.ActionCreate,
	"updateLockerItem":  access.ActionUpdate,
	"deleteLockerItem":  access.ActionDestroy,
	"receiveLockerItem": access.ActionReceive,
}

// InterfaceLockerItemController 定义储物柜物品控制器接口
type InterfaceLockerItemController interface {
	GetLockerItems()
	GetLockerItem()
	CreateLockerItem()
	UpdateLockerItem()
	DeleteLockerItem()
	ReceiveLockerItem()
}

// LockerItemController 处理储物柜物品相关的请求
type LockerItemController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
	Actor     access.Actor
}

// NewLockerItemController 创建一个新的储物柜物品控制器
func NewLockerItemController(ctx *gin.Context, container *container.ServiceContainer, actor access.Actor) *LockerItemController {
	return &LockerItemController{
		Ctx:       ctx,
		Container: container,
		Actor:     actor,
	}
}

// LockerItemRequest 表示登记物品请求
type LockerItemRequest struct {
	ResidentID uint   `json:"resident" binding:"required" example:"2"`
	ItemName   string `json:"item_name" binding:"required,max=100" example:"Parcel"`
}

// UpdateLockerItemRequest 表示更新物品请求，状态只能从 pending 变为 received
type UpdateLockerItemRequest struct {
	ResidentID *uint   `json:"resident"`
	ItemName   *string `json:"item_name" binding:"omitempty,max=100"`
	Status     *string `json:"status" binding:"omitempty,oneof=pending received"`
}

// HandleLockerItemFunc 返回一个处理储物柜物品请求的Gin处理函数
func HandleLockerItemFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		action, ok := lockerItemActions[method]
		if !ok {
			invalidMethod(ctx)
			return
		}
		actor, ok := authorize(ctx, LockerItemRules, action)
		if !ok {
			return
		}
		controller := NewLockerItemController(ctx, container, actor)

		switch method {
		case "getLockerItems":
			controller.GetLockerItems()
		case "getLockerItem":
			controller.GetLockerItem()
		case "createLockerItem":
			controller.CreateLockerItem()
		case "updateLockerItem":
			controller.UpdateLockerItem()
		case "deleteLockerItem":
			controller.DeleteLockerItem()
		case "receiveLockerItem":
			controller.ReceiveLockerItem()
		}
	}
}

func (c *LockerItemController) service() services.InterfaceLockerItemService {
	return c.Container.GetService("locker_item").(services.InterfaceLockerItemService)
}

// GetLockerItems 获取物品列表
// @Summary      获取储物柜物品列表
// @Description  管理员看到全部物品，住户只看到自己的
// @Tags         LockerItem
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为5，最大50"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=response.PageData}
// @Failure      401  {object}  ErrorResponse
// @Router       /locker-items [get]
func (c *LockerItemController) GetLockerItems() {
	page, pageSize := pageParams(c.Ctx, c.Container)
	items, total, err := c.service().GetAllLockerItems(c.Ctx.Request.Context(), c.Actor, page, pageSize)
	if err != nil {
		handleError(c.Ctx, c.Container, "getLockerItems", err)
		return
	}
	response.Page(c.Ctx, items, total, page, pageSize)
}

// GetLockerItem 获取单个物品
// @Summary      获取储物柜物品详情
// @Tags         LockerItem
// @Produce      json
// @Param        id path int true "物品ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.LockerItem}
// @Failure      404  {object}  ErrorResponse
// @Router       /locker-items/{id} [get]
func (c *LockerItemController) GetLockerItem() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	item, err := c.service().GetLockerItemByID(c.Ctx.Request.Context(), c.Actor, id)
	if err != nil {
		handleError(c.Ctx, c.Container, "getLockerItem", err)
		return
	}
	response.Success(c.Ctx, item)
}

// CreateLockerItem 登记物品
// @Summary      登记储物柜物品
// @Tags         LockerItem
// @Accept       json
// @Produce      json
// @Param        request body LockerItemRequest true "物品信息"
// @Security     BearerAuth
// @Success      201  {object}  response.Response{data=models.LockerItem}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "住户不存在"
// @Router       /locker-items [post]
func (c *LockerItemController) CreateLockerItem() {
	var req LockerItemRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	item := &models.LockerItem{ResidentID: req.ResidentID, ItemName: req.ItemName}
	if err := c.service().CreateLockerItem(c.Ctx.Request.Context(), item); err != nil {
		handleError(c.Ctx, c.Container, "createLockerItem", err)
		return
	}

	created, err := c.service().GetLockerItemByID(c.Ctx.Request.Context(), c.Actor, item.ID)
	if err != nil {
		handleError(c.Ctx, c.Container, "createLockerItem", err)
		return
	}
	response.Created(c.Ctx, created)
}

// UpdateLockerItem 更新物品
// @Summary      更新储物柜物品
// @Tags         LockerItem
// @Accept       json
// @Produce      json
// @Param        id path int true "物品ID"
// @Param        request body UpdateLockerItemRequest true "更新的字段"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.LockerItem}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "已领取的物品状态不可回退"
// @Router       /locker-items/{id} [put]
func (c *LockerItemController) UpdateLockerItem() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req UpdateLockerItemRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	update := services.LockerItemUpdate{ItemName: req.ItemName, ResidentID: req.ResidentID}
	if req.Status != nil {
		s := models.LockerStatus(*req.Status)
		update.Status = &s
	}

	item, err := c.service().UpdateLockerItem(c.Ctx.Request.Context(), id, update)
	if err != nil {
		handleError(c.Ctx, c.Container, "updateLockerItem", err)
		return
	}
	response.Success(c.Ctx, item)
}

// DeleteLockerItem 删除物品
// @Summary      删除储物柜物品
// @Tags         LockerItem
// @Param        id path int true "物品ID"
// @Security     BearerAuth
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /locker-items/{id} [delete]
func (c *LockerItemController) DeleteLockerItem() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteLockerItem(c.Ctx.Request.Context(), id); err != nil {
		handleError(c.Ctx, c.Container, "deleteLockerItem", err)
		return
	}
	c.Ctx.Status(http.StatusNoContent)
}

// ReceiveLockerItem 领取物品
// @Summary      领取储物柜物品
// @Description  物品所有者或管理员确认领取，重复领取直接返回当前状态
// @Tags         LockerItem
// @Produce      json
// @Param        id path int true "物品ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.LockerItem}
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /locker-items/{id}/receive [post]
func (c *LockerItemController) ReceiveLockerItem() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	item, err := c.service().ReceiveLockerItem(c.Ctx.Request.Context(), c.Actor, id)
	if err != nil {
		handleError(c.Ctx, c.Container, "receiveLockerItem", err)
		return
	}
	response.Success(c.Ctx, item)
}
