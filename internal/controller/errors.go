package controller

import (
	"errors"

	"expert_review_backend/internal/service"
	"expert_review_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 将业务错误映射为 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	var failed *service.ValidationFailedError
	switch {
	case errors.As(err, &failed):
		util.UnprocessableEntity(ctx, "review validation failed", ValidationFailedResult{
			Success: false,
			Errors:  failed.Errors,
		})
	case errors.Is(err, util.ErrSubmissionNotFound), errors.Is(err, util.ErrReviewNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidState):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrUnknownQuestion), errors.Is(err, util.ErrMalformedSubmission):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrRenderFailure):
		util.BadGateway(ctx, "report rendering failed, please retry")
	default:
		util.LogInternalError(ctx, err)
	}
}
