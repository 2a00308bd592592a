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

// ComplaintRules 投诉接口
var ComplaintRules = access.Rules{
	access.ActionList:     {access.Authenticated},
	access.ActionRetrieve: {access.Authenticated},
	access.ActionCreate:   {access.Authenticated},
	access.ActionUpdate:   {access.Authenticated, access.OwnerOrAdmin},
	access.ActionDestroy:  {access.Authenticated, access.OwnerOrAdmin},
}

var complaintActions = map[string]access.Action{
	"getComplaints":   access.ActionList,
	"getComplaint":    access.ActionRetrieve,
	"createComplaint": access.ActionCreate,
	"updateComplaint": access.ActionUpdate,
	"deleteComplaint": access.ActionDestroy,
}

// InterfaceComplaintController 定义投诉控制器接口
type InterfaceComplaintController interface {
	GetComplaints()
	GetComplaint()
	CreateComplaint()
	UpdateComplaint()
	DeleteComplaint()
}

// ComplaintController 处理投诉相关的请求
type ComplaintController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
	Actor     access.Actor
}

// NewComplaintController 创建一个新的投诉控制器
func NewComplaintController(ctx *gin.Context, container *container.ServiceContainer, actor access.Actor) *ComplaintController {
	return &ComplaintController{
		Ctx:       ctx,
		Container: container,
		Actor:     actor,
	}
}

// ComplaintRequest 表示创建投诉请求
type ComplaintRequest struct {
	Title   string `json:"title" binding:"required,max=200" example:"Noise after 22h"`
	Content string `json:"content" binding:"required" example:"Loud music in apartment B-12"`
}

// UpdateComplaintRequest 表示更新投诉请求
type UpdateComplaintRequest struct {
	Title         *string `json:"title" binding:"omitempty,max=200"`
	Content       *string `json:"content"`
	ResolveStatus *string `json:"resolve_status" binding:"omitempty,oneof=open in_progress closed"`
}

// HandleComplaintFunc 返回一个处理投诉请求的Gin处理函数
func HandleComplaintFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		action, ok := complaintActions[method]
		if !ok {
			invalidMethod(ctx)
			return
		}
		actor, ok := authorize(ctx, ComplaintRules, action)
		if !ok {
			return
		}
		controller := NewComplaintController(ctx, container, actor)

		switch method {
		case "getComplaints":
			controller.GetComplaints()
		case "getComplaint":
			controller.GetComplaint()
		case "createComplaint":
			controller.CreateComplaint()
		case "updateComplaint":
			controller.UpdateComplaint()
		case "deleteComplaint":
			controller.DeleteComplaint()
		}
	}
}

func (c *ComplaintController) service() services.InterfaceComplaintService {
	return c.Container.GetService("complaint").(services.InterfaceComplaintService)
}

// GetComplaints 获取投诉列表
// @Summary      获取投诉列表
// @Description  管理员看到全部投诉，住户只看到自己的
// @Tags         Complaint
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为5，最大50"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=response.PageData}
// @Failure      401  {object}  ErrorResponse
// @Router       /complaints [get]
func (c *ComplaintController) GetComplaints() {
	page, pageSize := pageParams(c.Ctx, c.Container)
	complaints, total, err := c.service().GetAllComplaints(c.Ctx.Request.Context(), c.Actor, page, pageSize)
	if err != nil {
		handleError(c.Ctx, c.Container, "getComplaints", err)
		return
	}
	response.Page(c.Ctx, complaints, total, page, pageSize)
}

// GetComplaint 获取单个投诉
// @Summary      获取投诉详情
// @Tags         Complaint
// @Produce      json
// @Param        id path int true "投诉ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.Complaint}
// @Failure      404  {object}  ErrorResponse
// @Router       /complaints/{id} [get]
func (c *ComplaintController) GetComplaint() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	complaint, err := c.service().GetComplaintByID(c.Ctx.Request.Context(), c.Actor, id)
	if err != nil {
		handleError(c.Ctx, c.Container, "getComplaint", err)
		return
	}
	response.Success(c.Ctx, complaint)
}

// CreateComplaint 创建投诉
// @Summary      创建投诉
// @Description  投诉属于当前登录用户，初始状态为 open
// @Tags         Complaint
// @Accept       json
// @Produce      json
// @Param        request body ComplaintRequest true "投诉内容"
// @Security     BearerAuth
// @Success      201  {object}  response.Response{data=models.Complaint}
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /complaints [post]
func (c *ComplaintController) CreateComplaint() {
	var req ComplaintRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	complaint := &models.Complaint{Title: req.Title, Content: req.Content}
	if err := c.service().CreateComplaint(c.Ctx.Request.Context(), c.Actor, complaint); err != nil {
		handleError(c.Ctx, c.Container, "createComplaint", err)
		return
	}

	created, err := c.service().GetComplaintByID(c.Ctx.Request.Context(), c.Actor, complaint.ID)
	if err != nil {
		handleError(c.Ctx, c.Container, "createComplaint", err)
		return
	}
	response.Created(c.Ctx, created)
}

// UpdateComplaint 更新投诉
// @Summary      更新投诉
// @Description  所有者或管理员可以修改，只有管理员可以修改处理状态
// @Tags         Complaint
// @Accept       json
// @Produce      json
// @Param        id path int true "投诉ID"
// @Param        request body UpdateComplaintRequest true "更新的字段"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.Complaint}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /complaints/{id} [put]
func (c *ComplaintController) UpdateComplaint() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req UpdateComplaintRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	update := services.ComplaintUpdate{Title: req.Title, Content: req.Content}
	if req.ResolveStatus != nil {
		s := models.ComplaintStatus(*req.ResolveStatus)
		update.ResolveStatus = &s
	}

	complaint, err := c.service().UpdateComplaint(c.Ctx.Request.Context(), c.Actor, id, update)
	if err != nil {
		handleError(c.Ctx, c.Container, "updateComplaint", err)
		return
	}
	response.Success(c.Ctx, complaint)
}

// DeleteComplaint 删除投诉
// @Summary      删除投诉
// @Tags         Complaint
// @Param        id path int true "投诉ID"
// @Security     BearerAuth
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /complaints/{id} [delete]
func (c *ComplaintController) DeleteComplaint() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteComplaint(c.Ctx.Request.Context(), c.Actor, id); err != nil {
		handleError(c.Ctx, c.Container, "deleteComplaint", err)
		return
	}
	c.Ctx.Status(http.StatusNoContent)
}
