package types

import "go.mongodb.org/mongo-driver/v2/bson"

// Student represents a student enrolled in a cohort.
//
// The document stores a cohort ObjectID reference; reads resolve it to the
// full cohort document ($lookup into cohortDoc), so API responses carry the
// embedded cohort under the "cohort" key.
type Student struct {
	ID          bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	FirstName   string        `json:"firstName" bson:"firstName"`
	LastName    string        `json:"lastName" bson:"lastName"`
	Email       string        `json:"email" bson:"email"`
	Phone       string        `json:"phone" bson:"phone"`
	LinkedinURL string        `json:"linkedinUrl" bson:"linkedinUrl"`
	Languages   []string      `json:"languages" bson:"languages"`
	Program     string        `json:"program" bson:"program"`
	Background  string        `json:"background" bson:"background"`

	// Image is the student's avatar: either an external URL or an object
	// key in the configured avatar storage.
	Image string `json:"image" bson:"image"`

	CohortID bson.ObjectID `json:"-" bson:"cohort,omitempty"`
	Cohort   *Cohort       `json:"cohort,omitempty" bson:"cohortDoc,omitempty"`

	Projects []string `json:"projects" bson:"projects"`
}
