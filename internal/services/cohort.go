package services

import (
	"context"

	"github.com/cohort-tools/apiserver/types"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CohortRepository defines persistence operations for cohorts.
type CohortRepository interface {
	List(ctx context.Context) ([]types.Cohort, error)
	Get(ctx context.Context, id bson.ObjectID) (types.Cohort, error)
	Create(ctx context.Context, cohort types.Cohort) (types.Cohort, error)
	Update(ctx context.Context, cohort types.Cohort) (types.Cohort, error)
	Delete(ctx context.Context, id bson.ObjectID) error
}

// CohortService encapsulates cohort use-cases.
type CohortService struct {
	repo   CohortRepository
	events *EventPublisher
}

func NewCohortService(repo CohortRepository, events *EventPublisher) *CohortService {
	return &CohortService{repo: repo, events: events}
}

func (s *CohortService) List(ctx context.Context) ([]types.Cohort, error) {
	return s.repo.List(ctx)
}

func (s *CohortService) Get(ctx context.Context, id bson.ObjectID) (types.Cohort, error) {
	return s.repo.Get(ctx, id)
}

func (s *CohortService) Create(ctx context.Context, cohort types.Cohort) (types.Cohort, error) {
	created, err := s.repo.Create(ctx, cohort)
	if err != nil {
		return types.Cohort{}, err
	}
	s.events.Publish("cohort.created", created.ID.Hex())
	return created, nil
}

func (s *CohortService) Update(ctx context.Context, cohort types.Cohort) (types.Cohort, error) {
	updated, err := s.repo.Update(ctx, cohort)
	if err != nil {
		return types.Cohort{}, err
	}
	s.events.Publish("cohort.updated", updated.ID.Hex())
	return updated, nil
}

func (s *CohortService) Delete(ctx context.Context, id bson.ObjectID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Publish("cohort.deleted", id.Hex())
	return nil
}
