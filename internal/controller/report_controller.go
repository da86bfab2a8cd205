package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"expert_review_backend/internal/service"
	"expert_review_backend/internal/util"
	"expert_review_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportController struct {
	service *service.ReportService
	reviews *service.ReviewService
}

func NewReportController(s *service.ReportService, reviews *service.ReviewService) *ReportController {
	return &ReportController{service: s, reviews: reviews}
}

// authorize 组装报告并校验访问权限，失败时已写出响应
func (c *ReportController) authorize(ctx *gin.Context) (*service.ReportContext, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	id, ok := submissionID(ctx)
	if !ok {
		return nil, false
	}
	if !authorizeSubmission(ctx, c.reviews, user, id) {
		return nil, false
	}
	rc, err := c.service.BuildDocument(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return nil, false
	}
	return rc, true
}

// Download godoc
// @Summary 下载评审报告
// @Description 渲染已定稿评审的分页报告；内容不变时支持 If-None-Match
// @Tags 评审报告
// @Produce application/pdf
// @Produce text/html
// @Security ApiKeyAuth
// @Param id path string true "提交ID"
// @Success 200 {file} binary
// @Success 304 "未修改"
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response "未找到已定稿评审"
// @Failure 409 {object} util.Response "评审仍为草稿"
// @Failure 502 {object} util.Response "渲染失败，可重试"
// @Router /api/submissions/{id}/report [get]
func (c *ReportController) Download(ctx *gin.Context) {
	rc, ok := c.authorize(ctx)
	if !ok {
		return
	}
	etag := fmt.Sprintf("%q", rc.Digest)
	if ctx.GetHeader("If-None-Match") == etag {
		ctx.Header("ETag", etag)
		ctx.Status(http.StatusNotModified)
		return
	}

	id := rc.Submission.ID
	art, err := c.service.GenerateFrom(ctx.Request.Context(), rc, func(percent int) {
		logger.Log.Debug("Report progress", zap.String("submissionId", id), zap.Int("percent", percent))
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", util.ContentDisposition(art.Filename))
	ctx.Header("ETag", etag)
	ctx.Header("X-Report-Pages", strconv.Itoa(rc.Document.TotalPages))
	ctx.Data(http.StatusOK, art.ContentType, art.Data)
}

// Pages godoc
// @Summary 报告分页结构
// @Description 返回报告的页面描述，供前端预览
// @Tags 评审报告
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "提交ID"
// @Success 200 {object} util.Response{data=report.Document}
// @Router /api/submissions/{id}/report/pages [get]
func (c *ReportController) Pages(ctx *gin.Context) {
	rc, ok := c.authorize(ctx)
	if !ok {
		return
	}
	ctx.Header("ETag", fmt.Sprintf("%q", rc.Digest))
	util.Success(ctx, rc.Document)
}

// Export godoc
// @Summary 导出评审报告
// @Description 渲染报告并上传到对象存储，返回 24 小时有效的下载链接
// @Tags 评审报告
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "提交ID"
// @Success 200 {object} util.Response{data=service.ExportResult}
// @Router /api/submissions/{id}/report/export [post]
func (c *ReportController) Export(ctx *gin.Context) {
	rc, ok := c.authorize(ctx)
	if !ok {
		return
	}
	result, err := c.service.ExportFrom(ctx.Request.Context(), rc)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
