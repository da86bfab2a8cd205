package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"expert_review_backend/internal/model"
)

// MemorySubmissionStore implements SubmissionStore over a map. Used by tests and
// the demo profile; it sees reviews through the paired MemoryReviewStore.
type MemorySubmissionStore struct {
	mu      sync.RWMutex
	subs    map[string]model.Submission
	reviews *MemoryReviewStore
}

func NewMemorySubmissionStore(reviews *MemoryReviewStore) *MemorySubmissionStore {
	return &MemorySubmissionStore{
		subs:    make(map[string]model.Submission),
		reviews: reviews,
	}
}

func (s *MemorySubmissionStore) Store(ctx context.Context, sub model.Submission) error {
	if err := sub.ValidateOrder(); err != nil {
		return err
	}
	if sub.ID == "" {
		sub.ID = model.GenerateUUID()
	}
	sub.Answers = sub.OrderedAnswers()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.ID] = sub
	return nil
}

func (s *MemorySubmissionStore) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, ErrNotFound
	}
	sub.Answers = sub.OrderedAnswers()
	return &sub, nil
}

func (s *MemorySubmissionStore) ListAwaitingReview(ctx context.Context, page, limit int) ([]model.Submission, int64, error) {
	s.mu.RLock()
	pending := make([]model.Submission, 0, len(s.subs))
	for _, sub := range s.subs {
		if s.reviews != nil {
			if r, err := s.reviews.FindBySubmission(ctx, sub.ID); err == nil && r.IsFinal() {
				continue
			}
		}
		pending = append(pending, sub)
	}
	s.mu.RUnlock()

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].SubmittedAt.Equal(pending[j].SubmittedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].SubmittedAt.Before(pending[j].SubmittedAt)
	})

	total := int64(len(pending))
	start := (page - 1) * limit
	if start >= len(pending) {
		return []model.Submission{}, total, nil
	}
	end := start + limit
	if end > len(pending) {
		end = len(pending)
	}
	return pending[start:end], total, nil
}

// MemoryReviewStore implements ReviewStore with the same compare-and-set rules as
// the gorm repository. Values are cloned on the way in and out.
type MemoryReviewStore struct {
	mu      sync.RWMutex
	reviews map[string]*model.Review
	nextID  uint
}

func NewMemoryReviewStore() *MemoryReviewStore {
	return &MemoryReviewStore{reviews: make(map[string]*model.Review)}
}

func (s *MemoryReviewStore) FindBySubmission(ctx context.Context, submissionID string) (*model.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[submissionID]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryReviewStore) Create(ctx context.Context, review *model.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[review.SubmissionID]; ok {
		return ErrAlreadyExists
	}
	s.nextID++
	now := time.Now()
	review.ID = s.nextID
	review.CreatedAt, review.UpdatedAt = now, now
	if review.Version == 0 {
		review.Version = 1
	}
	for i := range review.Items {
		review.Items[i].ID = uint(i + 1)
		review.Items[i].ReviewID = review.ID
	}
	s.reviews[review.SubmissionID] = review.Clone()
	return nil
}

func (s *MemoryReviewStore) SaveDraft(ctx context.Context, review *model.Review, expectedVersion int) error {
	return s.swap(review, expectedVersion)
}

func (s *MemoryReviewStore) Finalize(ctx context.Context, review *model.Review, expectedVersion int) error {
	return s.swap(review, expectedVersion)
}

func (s *MemoryReviewStore) swap(review *model.Review, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.reviews[review.SubmissionID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != expectedVersion || cur.IsFinal() {
		return ErrVersionConflict
	}
	review.Version = expectedVersion + 1
	review.UpdatedAt = time.Now()
	s.reviews[review.SubmissionID] = review.Clone()
	return nil
}

type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[uint]model.User
}

func NewMemoryUserStore(users ...model.User) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[uint]model.User, len(users))}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *MemoryUserStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
