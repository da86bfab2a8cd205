package repository

import (
	"context"
	"testing"
	"time"

	"expert_review_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReviewStoreCompareAndSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReviewStore()

	review := &model.Review{SubmissionID: "s1", Status: model.ReviewDraft}
	require.NoError(t, store.Create(ctx, review))
	assert.Equal(t, 1, review.Version)
	assert.ErrorIs(t, store.Create(ctx, &model.Review{SubmissionID: "s1"}), ErrAlreadyExists)

	a, err := store.FindBySubmission(ctx, "s1")
	require.NoError(t, err)
	b, err := store.FindBySubmission(ctx, "s1")
	require.NoError(t, err)

	a.Status = model.ReviewFinal
	require.NoError(t, store.Finalize(ctx, a, 1))
	assert.Equal(t, 2, a.Version)

	b.Status = model.ReviewFinal
	assert.ErrorIs(t, store.Finalize(ctx, b, 1), ErrVersionConflict)

	// FINAL 之后即便版本号匹配也不可再写
	stored, err := store.FindBySubmission(ctx, "s1")
	require.NoError(t, err)
	assert.ErrorIs(t, store.SaveDraft(ctx, stored, stored.Version), ErrVersionConflict)
}

func TestMemoryReviewStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReviewStore()
	review := &model.Review{
		SubmissionID: "s1",
		Status:       model.ReviewDraft,
		Items:        []model.QuestionReview{{QuestionID: 1, Score: model.IntPtr(10)}},
	}
	require.NoError(t, store.Create(ctx, review))

	got, err := store.FindBySubmission(ctx, "s1")
	require.NoError(t, err)
	*got.Items[0].Score = 99
	got.Items[0].Remark = "changed"

	again, err := store.FindBySubmission(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 10, *again.Items[0].Score)
	assert.Empty(t, again.Items[0].Remark)
}

func TestMemorySubmissionStoreListAwaitingReview(t *testing.T) {
	ctx := context.Background()
	reviews := NewMemoryReviewStore()
	subs := NewMemorySubmissionStore(reviews)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, subs.Store(ctx, model.Submission{
			UUIDBase:    model.UUIDBase{ID: id},
			SubmittedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	final := &model.Review{SubmissionID: "a", Status: model.ReviewFinal}
	require.NoError(t, reviews.Create(ctx, final))
	require.NoError(t, reviews.Create(ctx, &model.Review{SubmissionID: "b", Status: model.ReviewDraft}))

	list, total, err := subs.ListAwaitingReview(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	list, _, err = subs.ListAwaitingReview(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemorySubmissionStoreRejectsBadOrder(t *testing.T) {
	subs := NewMemorySubmissionStore(nil)
	err := subs.Store(context.Background(), model.Submission{Answers: []model.QuestionAnswer{
		{QuestionID: 1, Order: 1},
		{QuestionID: 2, Order: 3},
	}})
	assert.Error(t, err)
}
