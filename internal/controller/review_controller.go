package controller

import (
	"expert_review_backend/internal/model"
	"expert_review_backend/internal/service"
	"expert_review_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	service *service.ReviewService
}

func NewReviewController(s *service.ReviewService) *ReviewController {
	return &ReviewController{service: s}
}

func submissionID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if !model.IsValidUUID(id) {
		util.BadRequest(ctx, "invalid submission id")
		return "", false
	}
	return id, true
}

// ListPending godoc
// @Summary 专家待评审队列
// @Description 尚无定稿评审的提交，按提交时间升序
// @Tags 专家评审
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]PendingItem}}
// @Router /api/expert/reviews/pending [get]
func (c *ReviewController) ListPending(ctx *gin.Context) {
	page, limit := util.ParsePaging(ctx.Query("page"), ctx.Query("limit"))
	subs, total, err := c.service.ListPending(ctx.Request.Context(), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  toPendingItems(subs),
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// OpenForReview godoc
// @Summary 打开提交进行评审
// @Description 无评审时创建草稿（各题 0 分、空评语），已有草稿原样返回，已定稿只读返回
// @Tags 专家评审
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "提交ID"
// @Success 200 {object} util.Response{data=ReviewViewResponse}
// @Failure 404 {object} util.Response
// @Router /api/expert/submissions/{id}/review [get]
func (c *ReviewController) OpenForReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := submissionID(ctx)
	if !ok {
		return
	}

	d, err := c.service.OpenForReview(ctx.Request.Context(), id, user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, toViewResponse(d, true))
}

// SaveDraft godoc
// @Summary 保存评审草稿
// @Description 合并部分编辑，不做校验；负分按 0 保存
// @Tags 专家评审
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "提交ID"
// @Param body body ReviewRequest true "逐题评分与评语"
// @Success 200 {object} util.Response{data=ReviewResult}
// @Failure 409 {object} util.Response "评审已定稿"
// @Router /api/expert/submissions/{id}/review/draft [put]
func (c *ReviewController) SaveDraft(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := submissionID(ctx)
	if !ok {
		return
	}
	var req ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	review, err := c.service.SaveDraft(ctx.Request.Context(), id, user.UserID, req.edits())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, ReviewResult{Success: true, Review: toReviewDTO(review)})
}

// Finalize godoc
// @Summary 提交最终评审
// @Description 合并编辑并校验，全部通过后锁定评审、计算总分并通知提交者；校验失败时不写入任何修改
// @Tags 专家评审
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "提交ID"
// @Param body body ReviewRequest true "逐题评分与评语"
// @Success 200 {object} util.Response{data=ReviewResult}
// @Failure 409 {object} util.Response "评审已定稿或并发定稿冲突"
// @Failure 422 {object} util.Response{data=ValidationFailedResult}
// @Router /api/expert/submissions/{id}/review/finalize [post]
func (c *ReviewController) Finalize(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := submissionID(ctx)
	if !ok {
		return
	}
	var req ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	review, err := c.service.Finalize(ctx.Request.Context(), id, user.UserID, req.edits())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, ReviewResult{Success: true, Review: toReviewDTO(review)})
}

// GetReview godoc
// @Summary 查看评审结果
// @Description 未评审返回 PENDING；提交者本人在定稿前只能看到状态
// @Tags 评审结果
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "提交ID"
// @Success 200 {object} util.Response{data=ReviewViewResponse}
// @Failure 403 {object} util.Response
// @Router /api/submissions/{id}/review [get]
func (c *ReviewController) GetReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := submissionID(ctx)
	if !ok {
		return
	}

	if !authorizeSubmission(ctx, c.service, user, id) {
		return
	}

	d, err := c.service.GetForDisplay(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	// 草稿内容仅对专家可见
	includeReview := d.Status == service.StatusFinal || user.Role != model.Candidate
	util.Success(ctx, toViewResponse(d, includeReview))
}
