package controller

import (
	"context"

	"expert_review_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ownerLookup interface {
	SubmissionOwner(ctx context.Context, submissionID string) (uint, error)
}

// authorizeSubmission 先按提交者校验权限，再读取评审状态；非本人不会得知评审是否存在
func authorizeSubmission(ctx *gin.Context, owners ownerLookup, user *util.Claims, submissionID string) bool {
	owner, err := owners.SubmissionOwner(ctx.Request.Context(), submissionID)
	if err != nil {
		respondError(ctx, err)
		return false
	}
	if !user.CanAccessSubmission(owner) {
		respondError(ctx, util.ErrPermissionDenied)
		return false
	}
	return true
}
