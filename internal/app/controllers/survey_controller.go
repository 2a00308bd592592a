package controllers

import (
	"net/http"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/services"
	"condo-http-service/internal/domain/services/container"
	"condo-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// SurveyRules 问卷接口：任何人可读，管理员可写
var SurveyRules = access.Rules{
	access.ActionList:     {access.AdminOrReadOnly},
	access.ActionRetrieve: {access.AdminOrReadOnly},
	access.ActionCreate:   {access.Authenticated, access.AdminOrReadOnly},
	access.ActionUpdate:   {access.Authenticated, access.AdminOrReadOnly},
	access.ActionDestroy:  {access.Authenticated, access.AdminOrReadOnly},
	access.ActionResults:  {access.AdminOrReadOnly},
}

var surveyActions = map[string]access.Action{
	"getSurveys":       access.ActionList,
	"getSurvey":        access.ActionRetrieve,
	"createSurvey":     access.ActionCreate,
	"updateSurvey":     access.ActionUpdate,
	"deleteSurvey":     access.ActionDestroy,
	"getSurveyResults": access.ActionResults,
}

// InterfaceSurveyController 定义问卷控制器接口
type InterfaceSurveyController interface {
	GetSurveys()
	GetSurvey()
	CreateSurvey()
	UpdateSurvey()
	DeleteSurvey()
	GetSurveyResults()
}

// SurveyController 处理问卷相关的请求
type SurveyController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
	Actor     access.Actor
}

// NewSurveyController 创建一个新的问卷控制器
func NewSurveyController(ctx *gin.Context, container *container.ServiceContainer, actor access.Actor) *SurveyController {
	return &SurveyController{
		Ctx:       ctx,
		Container: container,
		Actor:     actor,
	}
}

// ChoiceRequest 选项
type ChoiceRequest struct {
	ChoiceText string `json:"choice_text" binding:"required,max=200" example:"Satisfied"`
}

// QuestionRequest 问题；choices 为空表示文本题
type QuestionRequest struct {
	QuestionText string          `json:"question_text" binding:"required" example:"How satisfied are you?"`
	Choices      []ChoiceRequest `json:"choices" binding:"dive"`
}

// SurveyRequest 创建问卷请求，问题和选项一次性提交
type SurveyRequest struct {
	Title       string            `json:"title" binding:"required,max=200" example:"Resident satisfaction 2024"`
	Description string            `json:"description"`
	Questions   []QuestionRequest `json:"questions" binding:"dive"`
}

// UpdateSurveyRequest 更新问卷请求，只能修改问卷本身的字段
type UpdateSurveyRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

// HandleSurveyFunc 返回一个处理问卷请求的Gin处理函数
func HandleSurveyFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		action, ok := surveyActions[method]
		if !ok {
			invalidMethod(ctx)
			return
		}
		actor, ok := authorize(ctx, SurveyRules, action)
		if !ok {
			return
		}
		controller := NewSurveyController(ctx, container, actor)

		switch method {
		case "getSurveys":
			controller.GetSurveys()
		case "getSurvey":
			controller.GetSurvey()
		case "createSurvey":
			controller.CreateSurvey()
		case "updateSurvey":
			controller.UpdateSurvey()
		case "deleteSurvey":
			controller.DeleteSurvey()
		case "getSurveyResults":
			controller.GetSurveyResults()
		}
	}
}

func (c *SurveyController) service() services.InterfaceSurveyService {
	return c.Container.GetService("survey").(services.InterfaceSurveyService)
}

// GetSurveys 获取问卷列表
// @Summary      获取问卷列表
// @Tags         Survey
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为5，最大50"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=response.PageData}
// @Failure      401  {object}  ErrorResponse
// @Router       /surveys [get]
func (c *SurveyController) GetSurveys() {
	page, pageSize := pageParams(c.Ctx, c.Container)
	surveys, total, err := c.service().GetAllSurveys(c.Ctx.Request.Context(), page, pageSize)
	if err != nil {
		handleError(c.Ctx, c.Container, "getSurveys", err)
		return
	}
	response.Page(c.Ctx, surveys, total, page, pageSize)
}

// GetSurvey 获取问卷详情，包含问题和选项
// @Summary      获取问卷详情
// @Tags         Survey
// @Produce      json
// @Param        id path int true "问卷ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.Survey}
// @Failure      404  {object}  ErrorResponse
// @Router       /surveys/{id} [get]
func (c *SurveyController) GetSurvey() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	survey, err := c.service().GetSurveyByID(c.Ctx.Request.Context(), id)
	if err != nil {
		handleError(c.Ctx, c.Container, "getSurvey", err)
		return
	}
	response.Success(c.Ctx, survey)
}

// CreateSurvey 创建问卷
// @Summary      创建问卷
// @Description  问卷、问题和选项在同一事务中创建
// @Tags         Survey
// @Accept       json
// @Produce      json
// @Param        request body SurveyRequest true "问卷内容"
// @Security     BearerAuth
// @Success      201  {object}  response.Response{data=models.Survey}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /surveys [post]
func (c *SurveyController) CreateSurvey() {
	var req SurveyRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	input := services.SurveyInput{Title: req.Title, Description: req.Description}
	for _, q := range req.Questions {
		question := services.QuestionInput{QuestionText: q.QuestionText}
		for _, choice := range q.Choices {
			question.Choices = append(question.Choices, choice.ChoiceText)
		}
		input.Questions = append(input.Questions, question)
	}

	survey, err := c.service().CreateSurvey(c.Ctx.Request.Context(), c.Actor, input)
	if err != nil {
		handleError(c.Ctx, c.Container, "createSurvey", err)
		return
	}
	response.Created(c.Ctx, survey)
}

// UpdateSurvey 更新问卷
// @Summary      更新问卷
// @Tags         Survey
// @Accept       json
// @Produce      json
// @Param        id path int true "问卷ID"
// @Param        request body UpdateSurveyRequest true "更新的字段"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.Survey}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /surveys/{id} [put]
func (c *SurveyController) UpdateSurvey() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req UpdateSurveyRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	survey, err := c.service().UpdateSurvey(c.Ctx.Request.Context(), id, services.SurveyUpdate{
		Title:       req.Title,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		handleError(c.Ctx, c.Container, "updateSurvey", err)
		return
	}
	response.Success(c.Ctx, survey)
}

// DeleteSurvey 删除问卷及其问题、选项和答复
// @Summary      删除问卷
// @Tags         Survey
// @Param        id path int true "问卷ID"
// @Security     BearerAuth
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /surveys/{id} [delete]
func (c *SurveyController) DeleteSurvey() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteSurvey(c.Ctx.Request.Context(), id); err != nil {
		handleError(c.Ctx, c.Container, "deleteSurvey", err)
		return
	}
	c.Ctx.Status(http.StatusNoContent)
}

// GetSurveyResults 获取问卷统计
// @Summary      获取问卷统计结果
// @Description  按选项统计选择次数，并统计文本答案数量
// @Tags         Survey
// @Produce      json
// @Param        id path int true "问卷ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=services.SurveyResults}
// @Failure      404  {object}  ErrorResponse
// @Router       /surveys/{id}/results [get]
func (c *SurveyController) GetSurveyResults() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	results, err := c.service().GetSurveyResults(c.Ctx.Request.Context(), id)
	if err != nil {
		handleError(c.Ctx, c.Container, "getSurveyResults", err)
		return
	}
	response.Success(c.Ctx, results)
}
