package store

import (
	"context"
	"errors"

	"github.com/cohort-tools/apiserver/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const cohortsCollection = "cohorts"

// CohortRepository handles persistence for cohorts.
type CohortRepository struct {
	coll *mongo.Collection
}

func NewCohortRepository(db *mongo.Database) *CohortRepository {
	return &CohortRepository{coll: db.Collection(cohortsCollection)}
}

func (r *CohortRepository) List(ctx context.Context) ([]types.Cohort, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	cohorts := []types.Cohort{}
	if err := cursor.All(ctx, &cohorts); err != nil {
		return nil, err
	}
	return cohorts, nil
}

func (r *CohortRepository) Get(ctx context.Context, id bson.ObjectID) (types.Cohort, error) {
	var cohort types.Cohort
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&cohort)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Cohort{}, ErrNotFound
		}
		return types.Cohort{}, err
	}
	return cohort, nil
}

func (r *CohortRepository) Create(ctx context.Context, cohort types.Cohort) (types.Cohort, error) {
	result, err := r.coll.InsertOne(ctx, cohort)
	if err != nil {
		return types.Cohort{}, err
	}
	if id, ok := result.InsertedID.(bson.ObjectID); ok {
		cohort.ID = id
	}
	return cohort, nil
}

// Update replaces the cohort document and returns the new version.
func (r *CohortRepository) Update(ctx context.Context, cohort types.Cohort) (types.Cohort, error) {
	var updated types.Cohort
	err := r.coll.FindOneAndReplace(
		ctx,
		bson.M{"_id": cohort.ID},
		cohort,
		options.FindOneAndReplace().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Cohort{}, ErrNotFound
		}
		return types.Cohort{}, err
	}
	return updated, nil
}

func (r *CohortRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
