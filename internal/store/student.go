package store

import (
	"context"

	"github.com/cohort-tools/apiserver/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const studentsCollection = "students"

// StudentRepository handles persistence for students. All reads resolve the
// cohort reference into an embedded cohort document via $lookup.
type StudentRepository struct {
	coll *mongo.Collection
}

func NewStudentRepository(db *mongo.Database) *StudentRepository {
	return &StudentRepository{coll: db.Collection(studentsCollection)}
}

func cohortLookupStages() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: cohortsCollection},
			{Key: "localField", Value: "cohort"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "cohortDoc"},
		}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$cohortDoc"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

func (r *StudentRepository) aggregate(ctx context.Context, match bson.M) ([]types.Student, error) {
	pipeline := mongo.Pipeline{}
	if match != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	pipeline = append(pipeline, cohortLookupStages()...)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	students := []types.Student{}
	if err := cursor.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (r *StudentRepository) List(ctx context.Context) ([]types.Student, error) {
	return r.aggregate(ctx, nil)
}

func (r *StudentRepository) ListByCohort(ctx context.Context, cohortID bson.ObjectID) ([]types.Student, error) {
	return r.aggregate(ctx, bson.M{"cohort": cohortID})
}

func (r *StudentRepository) Get(ctx context.Context, id bson.ObjectID) (types.Student, error) {
	students, err := r.aggregate(ctx, bson.M{"_id": id})
	if err != nil {
		return types.Student{}, err
	}
	if len(students) == 0 {
		return types.Student{}, ErrNotFound
	}
	return students[0], nil
}

func (r *StudentRepository) Create(ctx context.Context, student types.Student) (types.Student, error) {
	student.Cohort = nil
	result, err := r.coll.InsertOne(ctx, student)
	if err != nil {
		return types.Student{}, err
	}
	if id, ok := result.InsertedID.(bson.ObjectID); ok {
		student.ID = id
	}
	return student, nil
}

// Update replaces the student document. The embedded cohort is stripped so
// only the reference is persisted.
func (r *StudentRepository) Update(ctx context.Context, student types.Student) error {
	student.Cohort = nil
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": student.ID}, student)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StudentRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetImage updates only the student's image field.
func (r *StudentRepository) SetImage(ctx context.Context, id bson.ObjectID, image string) error {
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"image": image}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
