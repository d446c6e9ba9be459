package services

import (
	"context"
	"strings"

	"github.com/eventdesk/apiserver/types"
)

// FeedbackRepository defines persistence operations for feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, fb types.Feedback) (types.Feedback, error)
	ListByEvent(ctx context.Context, eventID int) ([]types.Feedback, error)
	ListByUser(ctx context.Context, userID int) ([]types.Feedback, error)
	UpdateReview(ctx context.Context, id, userID int, review string) (types.Feedback, error)
	Delete(ctx context.Context, id, userID int) error
}

// FeedbackService encapsulates feedback use-cases.
type FeedbackService struct {
	repo   FeedbackRepository
	events *EventService
}

func NewFeedbackService(repo FeedbackRepository, events *EventService) *FeedbackService {
	return &FeedbackService{repo: repo, events: events}
}

// Create stores a review for an event that has already taken place.
func (s *FeedbackService) Create(ctx context.Context, userID, eventID int, review string) (types.Feedback, error) {
	review = strings.TrimSpace(review)
	if eventID <= 0 {
		return types.Feedback{}, invalid("event_id", "must be positive")
	}
	if review == "" {
		return types.Feedback{}, invalid("review", "is required")
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return types.Feedback{}, err
	}
	if !event.Complete {
		return types.Feedback{}, ErrEventNotComplete
	}

	fb, err := s.repo.Create(ctx, types.Feedback{
		UserID:   userID,
		EventID:  eventID,
		Review:   review,
		DateTime: s.events.Now(),
	})
	if err != nil {
		return types.Feedback{}, storageErr("create feedback", err)
	}
	return fb, nil
}

func (s *FeedbackService) ListByEvent(ctx context.Context, eventID int) ([]types.Feedback, error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, storageErr("list feedback", err)
	}
	return items, nil
}

func (s *FeedbackService) ListByUser(ctx context.Context, userID int) ([]types.Feedback, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("list feedback", err)
	}
	return items, nil
}

// Update replaces the review text. Only the author's own entries match.
func (s *FeedbackService) Update(ctx context.Context, id, userID int, review string) (types.Feedback, error) {
	review = strings.TrimSpace(review)
	if review == "" {
		return types.Feedback{}, invalid("review", "is required")
	}
	fb, err := s.repo.UpdateReview(ctx, id, userID, review)
	if err != nil {
		return types.Feedback{}, storageErr("update feedback", err)
	}
	return fb, nil
}

// Delete removes a feedback entry. Only the author's own entries match.
func (s *FeedbackService) Delete(ctx context.Context, id, userID int) error {
	return storageErr("delete feedback", s.repo.Delete(ctx, id, userID))
}
