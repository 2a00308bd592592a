package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/domain/services"
	"condo-http-service/internal/domain/services/container"
	"condo-http-service/internal/error/code"
	"condo-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// SurveyResponseRules 问卷答复接口
var SurveyResponseRules = access.Rules{
	access.ActionList:     {access.Authenticated},
	access.ActionRetrieve: {access.Authenticated},
	access.ActionCreate:   {access.Authenticated},
	access.ActionDestroy:  {access.Authenticated, access.OwnerOrAdmin},
}

var surveyResponseActions = map[string]access.Action{
	"getResponses":   access.ActionList,
	"getResponse":    access.ActionRetrieve,
	"createResponse": access.ActionCreate,
	"deleteResponse": access.ActionDestroy,
}

// SurveyResponseController 处理问卷答复相关的请求
type SurveyResponseController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
	Actor     access.Actor
}

// NewSurveyResponseController 创建一个新的问卷答复控制器
func NewSurveyResponseController(ctx *gin.Context, container *container.ServiceContainer, actor access.Actor) *SurveyResponseController {
	return &SurveyResponseController{
		Ctx:       ctx,
		Container: container,
		Actor:     actor,
	}
}

// AnswerRequest 单个答案，choice 与 answer_text 必须且只能提供一个
type AnswerRequest struct {
	Question   uint    `json:"question" binding:"required" example:"1"`
	Choice     *uint   `json:"choice,omitempty" example:"2"`
	AnswerText *string `json:"answer_text,omitempty"`
}

// SurveyResponseRequest 提交答复请求
type SurveyResponseRequest struct {
	Survey  uint            `json:"survey" binding:"required" example:"1"`
	Answers []AnswerRequest `json:"answers" binding:"required,min=1,dive"`
}

// HandleSurveyResponseFunc 返回一个处理问卷答复请求的Gin处理函数
func HandleSurveyResponseFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		action, ok := surveyResponseActions[method]
		if !ok {
			invalidMethod(ctx)
			return
		}
		actor, ok := authorize(ctx, SurveyResponseRules, action)
		if !ok {
			return
		}
		controller := NewSurveyResponseController(ctx, container, actor)

		switch method {
		case "getResponses":
			controller.GetResponses()
		case "getResponse":
			controller.GetResponse()
		case "createResponse":
			controller.CreateResponse()
		case "deleteResponse":
			controller.DeleteResponse()
		}
	}
}

func (c *SurveyResponseController) service() services.InterfaceSurveyResponseService {
	return c.Container.GetService("survey_response").(services.InterfaceSurveyResponseService)
}

// GetResponses 获取答复列表
// @Summary      获取问卷答复列表
// @Description  管理员看到全部答复，住户只看到自己的
// @Tags         SurveyResponse
// @Produce      json
// @Param        page query int false "页码，默认为1"
// @Param        page_size query int false "每页条数，默认为5，最大50"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=response.PageData}
// @Router       /survey-responses [get]
func (c *SurveyResponseController) GetResponses() {
	page, pageSize := pageParams(c.Ctx, c.Container)
	responses, total, err := c.service().GetAllResponses(c.Ctx.Request.Context(), c.Actor, page, pageSize)
	if err != nil {
		handleError(c.Ctx, c.Container, "getResponses", err)
		return
	}
	response.Page(c.Ctx, responses, total, page, pageSize)
}

// GetResponse 获取单个答复及其答案
// @Summary      获取问卷答复详情
// @Tags         SurveyResponse
// @Produce      json
// @Param        id path int true "答复ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=models.SurveyResponse}
// @Failure      404  {object}  ErrorResponse
// @Router       /survey-responses/{id} [get]
func (c *SurveyResponseController) GetResponse() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	resp, err := c.service().GetResponseByID(c.Ctx.Request.Context(), c.Actor, id)
	if err != nil {
		handleError(c.Ctx, c.Container, "getResponse", err)
		return
	}
	response.Success(c.Ctx, resp)
}

// CreateResponse 提交问卷答复
// @Summary      提交问卷答复
// @Description  答复和全部答案在同一事务中保存，任何一个答案无效则整体失败
// @Tags         SurveyResponse
// @Accept       json
// @Produce      json
// @Param        request body SurveyResponseRequest true "答复内容"
// @Security     BearerAuth
// @Success      201  {object}  response.Response{data=models.SurveyResponse}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "问卷不存在"
// @Failure      409  {object}  ErrorResponse "已提交过答复"
// @Router       /survey-responses [post]
func (c *SurveyResponseController) CreateResponse() {
	var req SurveyResponseRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	answers := make([]services.AnswerInput, 0, len(req.Answers))
	for i, a := range req.Answers {
		answer, err := models.ParseAnswer(a.Choice, a.AnswerText)
		if err != nil {
			if errors.Is(err, models.ErrAnswerShape) {
				response.FailWithMessage(c.Ctx, code.ErrSurveyAnswerInvalid, fmt.Sprintf("answers[%d]: %s", i, err), nil)
				return
			}
			handleError(c.Ctx, c.Container, "createResponse", err)
			return
		}
		answers = append(answers, services.AnswerInput{QuestionID: a.Question, Answer: answer})
	}

	resp, err := c.service().CreateResponse(c.Ctx.Request.Context(), c.Actor, req.Survey, answers)
	if err != nil {
		handleError(c.Ctx, c.Container, "createResponse", err)
		return
	}
	response.Created(c.Ctx, resp)
}

// DeleteResponse 删除答复
// @Summary      删除问卷答复
// @Tags         SurveyResponse
// @Param        id path int true "答复ID"
// @Security     BearerAuth
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /survey-responses/{id} [delete]
func (c *SurveyResponseController) DeleteResponse() {
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteResponse(c.Ctx.Request.Context(), c.Actor, id); err != nil {
		handleError(c.Ctx, c.Container, "deleteResponse", err)
		return
	}
	c.Ctx.Status(http.StatusNoContent)
}
