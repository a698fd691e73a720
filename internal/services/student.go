package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/cohort-tools/apiserver/internal/storage"
	"github.com/cohort-tools/apiserver/internal/store"
	"github.com/cohort-tools/apiserver/types"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const avatarKeyPrefix = "avatars/"

// ErrStorageDisabled is returned by avatar operations when no object-storage
// backend is configured.
var ErrStorageDisabled = errors.New("avatar storage is not configured")

// StudentRepository defines persistence operations for students.
type StudentRepository interface {
	List(ctx context.Context) ([]types.Student, error)
	ListByCohort(ctx context.Context, cohortID bson.ObjectID) ([]types.Student, error)
	Get(ctx context.Context, id bson.ObjectID) (types.Student, error)
	Create(ctx context.Context, student types.Student) (types.Student, error)
	Update(ctx context.Context, student types.Student) error
	Delete(ctx context.Context, id bson.ObjectID) error
	SetImage(ctx context.Context, id bson.ObjectID, image string) error
}

// StudentService encapsulates student use-cases. Avatar storage is optional;
// when absent the avatar operations fail with ErrStorageDisabled.
type StudentService struct {
	repo    StudentRepository
	avatars *storage.Storage
	events  *EventPublisher
}

func NewStudentService(repo StudentRepository, avatars *storage.Storage, events *EventPublisher) *StudentService {
	return &StudentService{repo: repo, avatars: avatars, events: events}
}

func (s *StudentService) List(ctx context.Context) ([]types.Student, error) {
	return s.repo.List(ctx)
}

func (s *StudentService) ListByCohort(ctx context.Context, cohortID bson.ObjectID) ([]types.Student, error) {
	return s.repo.ListByCohort(ctx, cohortID)
}

func (s *StudentService) Get(ctx context.Context, id bson.ObjectID) (types.Student, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts the student and re-reads it so the response carries the
// populated cohort.
func (s *StudentService) Create(ctx context.Context, student types.Student) (types.Student, error) {
	created, err := s.repo.Create(ctx, student)
	if err != nil {
		return types.Student{}, err
	}
	s.events.Publish("student.created", created.ID.Hex())
	return s.repo.Get(ctx, created.ID)
}

func (s *StudentService) Update(ctx context.Context, student types.Student) (types.Student, error) {
	if err := s.repo.Update(ctx, student); err != nil {
		return types.Student{}, err
	}
	s.events.Publish("student.updated", student.ID.Hex())
	return s.repo.Get(ctx, student.ID)
}

func (s *StudentService) Delete(ctx context.Context, id bson.ObjectID) error {
	student, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.avatars != nil && strings.HasPrefix(student.Image, avatarKeyPrefix) {
		_ = s.avatars.Delete(ctx, student.Image)
	}
	s.events.Publish("student.deleted", id.Hex())
	return nil
}

// UploadAvatar stores the image under a fresh object key, points the student
// record at it and removes the previous object.
func (s *StudentService) UploadAvatar(ctx context.Context, id bson.ObjectID, filename, contentType string, data []byte) (types.Student, error) {
	if s.avatars == nil {
		return types.Student{}, ErrStorageDisabled
	}

	student, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Student{}, err
	}

	key := avatarKeyPrefix + uuid.NewString() + strings.ToLower(path.Ext(filename))
	if err := s.avatars.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Student{}, err
	}

	if err := s.repo.SetImage(ctx, id, key); err != nil {
		_ = s.avatars.Delete(ctx, key)
		return types.Student{}, err
	}

	if strings.HasPrefix(student.Image, avatarKeyPrefix) {
		_ = s.avatars.Delete(ctx, student.Image)
	}

	s.events.Publish("student.updated", id.Hex())
	return s.repo.Get(ctx, id)
}

// OpenAvatar streams the stored avatar. Students whose image is an external
// URL rather than a stored object report not found.
func (s *StudentService) OpenAvatar(ctx context.Context, id bson.ObjectID) (io.ReadCloser, string, error) {
	if s.avatars == nil {
		return nil, "", ErrStorageDisabled
	}

	student, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !strings.HasPrefix(student.Image, avatarKeyPrefix) {
		return nil, "", store.ErrNotFound
	}

	reader, err := s.avatars.Get(ctx, student.Image)
	if err != nil {
		return nil, "", err
	}

	contentType := mime.TypeByExtension(path.Ext(student.Image))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return reader, contentType, nil
}
