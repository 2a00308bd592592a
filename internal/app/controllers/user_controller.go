package controllers

import (
	"net/http"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/domain/services"
	"condo-http-service/internal/domain/services/container"
	"condo-http-service/internal/error/code"
	"condo-http-service/internal/error/response"
	"condo-http-service/internal/infrastructure/storage"

	"github.com/gin-gonic/gin"
)

// UserRules 用户接口的权限声明
var UserRules = access.Rules{
	access.ActionList:           {access.Authenticated},
	access.ActionRetrieve:       {access.Authenticated},
	access.ActionMe:             {access.Authenticated},
	access.ActionCreate:         {access.AdminOrReadOnly},
	access.ActionUpdate:         {access.AdminOrReadOnly},
	access.ActionDestroy:        {access.AdminOrReadOnly},
	access.ActionChangePassword: {access.Authenticated},
	access.ActionUploadAvatar:   {access.Authenticated},
	access.ActionPaymentTotal:   {access.Authenticated, access.OwnerOrAdmin},
}

var userActions = map[string]access.Action{
	"getUsers":        access.ActionList,
	"getUser":         access.ActionRetrieve,
	"getMe":           access.ActionMe,
	"createUser":      access.ActionCreate,
	"updateUser":      access.ActionUpdate,
	"deleteUser":      access.ActionDestroy,
	"changePassword":  access.ActionChangePassword,
	"uploadAvatar":    access.ActionUploadAvatar,
	"getPaymentTotal": access.ActionPaymentTotal,
}

// InterfaceUserController 定义用户控制器接口
type InterfaceUserController interface {
	GetUsers()
	GetUser()
	GetMe()
	CreateUser()
	UpdateUser()
	DeleteUser()
	ChangePassword()
	UploadAvatar()
	GetPaymentTotal()
}

// UserController 处理用户相关的请求
type UserController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
	Actor     access.Actor
}

// NewUserController 创建一个新的用户控制器
func NewUserController(ctx *gin.Context, container *container.ServiceContainer, actor access.Actor) *UserController {
	return &UserController{
		Ctx:       ctx,
		Container: container,
		Actor:     actor,
	}
}

// CreateUserRequest 表示创建用户请求
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,max=150" example:"resident01"`
	Password    string `json:"password" binding:"required" example:"secret123"`
	Role        string `json:"role" binding:"required,oneof=admin resident" example:"resident"`
	FirstName   string `json:"first_name" binding:"max=150" example:"Ana"`
	LastName    string `json:"last_name" binding:"max=150" example:"Silva"`
	Email       string `json:"email" binding:"omitempty,email" example:"ana@example.com"`
	PhoneNumber string `json:"phone_number" binding:"max=15" example:"11999990000"`
}

// UpdateUserRequest 表示更新用户请求，角色不可修改
type UpdateUserRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,max=150"`
	LastName    *string `json:"last_name" binding:"omitempty,max=150"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=15"`
	Role        *string `json:"role" binding:"omitempty,oneof=admin resident"`
	Active      *bool   `json:"active"`
}

// ChangePasswordRequest 表示修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// HandleUserFunc 返回一个处理用户请求的Gin处理函数
func HandleUserFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		action, ok := userActions[method]
		if !ok {
			invalidMethod(ctx)
			return
		}
		actor, ok := authorize(ctx, UserRules, action)
		if !ok {
			return
		}
		controller := NewUserController(ctx, container, actor)

		switch method {
		case "getUsers":
			controller.GetUsers()
		case "getUser":
			controller.GetUser()
		case "getMe":
			controller.GetMe()
		case "createUser":
			controller.CreateUser()
		case "updateUser":
			controller.UpdateUser()
		case "deleteUser":
			controller.DeleteUser()
		case "changePassword":
			controller.ChangePassword()
		case "uploadAvatar":
			controller.UploadAvatar()
		case "getPaymentTotal":
			controller.GetPaymentTotal()
		}
	}
}

func (c *UserController) service() services.InterfaceUserService {
	return c.Container.GetService("user").(services.InterfaceUserService)
}

func (c *UserController) present(users ...*models.User) {
	store, ok := c.Container.GetService("store").(storage.BlobStore)
	if !ok {
		return
	}
	for _, u := range users {
		u.AvatarURL = store.URL(u.Avatar)
	}
}

// GetUsers 获取所有用户
// @Summary      获取用户列表
// @Description  获取所有启用的用户，按ID倒序分页
// @Tags         User
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为5，最大50"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=response.PageData}
// @Failure      401  {object}  ErrorResponse
// @Router       /users [get]
func (c *UserController) GetUsers() {
	page, pageSize := pageParams(c.Ctx, c.Container)
	users, total, err := c.service().GetAllUsers(c.Ctx.Request.Context(), page, pageSize)
	if err != nil {
		handleError(c.Ctx, c.Container, "getUsers", err)
		return
	}
	for i := range users {
		c.present(&users[i])
	}
	response.Page(c.Ctx, users, total, page, pageSize)
}

// GetUser 获取单个用户
// @Summary      获取用户详情
// @Tags         User
// @Produce      json
// @Param        id path int true "用户ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.User}
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (c *UserController) GetUser() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	user, err := c.service().GetUserByID(c.Ctx.Request.Context(), id)
	if err != nil {
		handleError(c.Ctx, c.Container, "getUser", err)
		return
	}
	c.present(user)
	response.Success(c.Ctx, user)
}

// GetMe 获取当前登录用户
// @Summary      当前用户
// @Tags         User
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.User}
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me [get]
func (c *UserController) GetMe() {
	user, err := c.service().GetUserByID(c.Ctx.Request.Context(), c.Actor.UserID)
	if err != nil {
		handleError(c.Ctx, c.Container, "getMe", err)
		return
	}
	c.present(user)
	response.Success(c.Ctx, user)
}

// CreateUser 创建用户
// @Summary      创建用户
// @Description  仅管理员可用，密码以 bcrypt 哈希保存
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "用户信息"
// @Security     BearerAuth
// @Success      201  {object}  response.Response{data=models.User}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /users [post]
func (c *UserController) CreateUser() {
	var req CreateUserRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		response.Fail(c.Ctx, code.ErrInvalidRole, nil)
		return
	}

	user := &models.User{
		Username:    req.Username,
		Role:        role,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}
	if err := c.service().CreateUser(c.Ctx.Request.Context(), user, req.Password); err != nil {
		handleError(c.Ctx, c.Container, "createUser", err)
		return
	}
	c.present(user)
	response.Created(c.Ctx, user)
}

// UpdateUser 更新用户
// @Summary      更新用户
// @Description  仅管理员可用；角色创建后不可修改
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id path int true "用户ID"
// @Param        request body UpdateUserRequest true "更新的字段"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.User}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [put]
func (c *UserController) UpdateUser() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	update := services.UserUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Active:      req.Active,
	}
	if req.Role != nil {
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			response.Fail(c.Ctx, code.ErrInvalidRole, nil)
			return
		}
		update.Role = &role
	}

	user, err := c.service().UpdateUser(c.Ctx.Request.Context(), id, update)
	if err != nil {
		handleError(c.Ctx, c.Container, "updateUser", err)
		return
	}
	c.present(user)
	response.Success(c.Ctx, user)
}

// DeleteUser 删除用户
// @Summary      删除用户
// @Description  仅管理员可用，同时删除该用户的账单、物品、投诉和问卷答复
// @Tags         User
// @Param        id path int true "用户ID"
// @Security     BearerAuth
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [delete]
func (c *UserController) DeleteUser() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteUser(c.Ctx.Request.Context(), id); err != nil {
		handleError(c.Ctx, c.Container, "deleteUser", err)
		return
	}
	c.Ctx.Status(http.StatusNoContent)
}

// ChangePassword 修改当前用户的密码
// @Summary      修改密码
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "旧密码和新密码"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  ErrorResponse "旧密码错误"
// @Failure      401  {object}  ErrorResponse
// @Router       /users/change-password [post]
func (c *UserController) ChangePassword() {
	var req ChangePasswordRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}
	if err := c.service().ChangePassword(c.Ctx.Request.Context(), c.Actor, req.OldPassword, req.NewPassword); err != nil {
		handleError(c.Ctx, c.Container, "changePassword", err)
		return
	}
	response.Success(c.Ctx, gin.H{"message": "password updated successfully"})
}

// UploadAvatar 上传当前用户头像
// @Summary      上传头像
// @Tags         User
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "头像图片"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.User}
// @Failure      400  {object}  ErrorResponse
// @Router       /users/me/avatar [post]
func (c *UserController) UploadAvatar() {
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

	user, err := c.service().UpdateAvatar(c.Ctx.Request.Context(), c.Actor, fh.Filename, f)
	if err != nil {
		handleError(c.Ctx, c.Container, "uploadAvatar", err)
		return
	}
	c.present(user)
	response.Success(c.Ctx, user)
}

// GetPaymentTotal 统计用户账单金额合计
// @Summary      账单合计
// @Description  用户本人或管理员可查看
// @Tags         User
// @Produce      json
// @Param        id path int true "用户ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  ErrorResponse
// @Router       /users/{id}/payment-total [get]
func (c *UserController) GetPaymentTotal() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	invoiceService := c.Container.GetService("invoice").(services.InterfaceInvoiceService)
	total, err := invoiceService.GetPaymentTotal(c.Ctx.Request.Context(), c.Actor, id)
	if err != nil {
		handleError(c.Ctx, c.Container, "getPaymentTotal", err)
		return
	}
	response.Success(c.Ctx, gin.H{"user_id": id, "total": total})
}
