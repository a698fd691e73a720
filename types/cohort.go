package types

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Cohort represents a single run of a program at a campus.
type Cohort struct {
	ID             bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	CohortSlug     string        `json:"cohortSlug" bson:"cohortSlug"`
	CohortName     string        `json:"cohortName" bson:"cohortName"`
	Program        string        `json:"program" bson:"program"`
	Format         string        `json:"format" bson:"format"`
	Campus         string        `json:"campus" bson:"campus"`
	StartDate      time.Time     `json:"startDate" bson:"startDate"`
	EndDate        time.Time     `json:"endDate" bson:"endDate"`
	InProgress     bool          `json:"inProgress" bson:"inProgress"`
	ProgramManager string        `json:"programManager" bson:"programManager"`
	LeadTeacher    string        `json:"leadTeacher" bson:"leadTeacher"`
	TotalHours     int           `json:"totalHours" bson:"totalHours"`
}
