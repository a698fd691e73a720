package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/cohort-tools/apiserver/internal/services"
	"github.com/cohort-tools/apiserver/internal/store"
	"github.com/cohort-tools/apiserver/types"
)

const (
	maxMultipartMemory = 8 << 20
	maxAvatarBytes     = 8 << 20
	formFieldAvatar    = "avatar"
)

// StudentHandler provides CRUD and avatar handlers for students.
type StudentHandler struct {
	studentService *services.StudentService
}

func NewStudentHandler(studentService *services.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// StudentRouter registers student routes on the given router.
func StudentRouter(r chi.Router, studentService *services.StudentService) {
	handler := NewStudentHandler(studentService)

	r.Get("/", handler.ListStudents)
	r.Post("/", handler.CreateStudent)
	r.Get("/cohort/{cohortId}", handler.ListStudentsByCohort)
	r.Route("/{studentId}", func(r chi.Router) {
		r.Get("/", handler.GetStudent)
		r.Put("/", handler.UpdateStudent)
		r.Delete("/", handler.DeleteStudent)
		r.Put("/avatar", handler.UploadAvatar)
		r.Get("/avatar", handler.GetAvatar)
	})
}

// StudentUpsertRequest is the create/update payload. The cohort reference
// arrives as a hex ObjectID string.
type StudentUpsertRequest struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	LinkedinURL string   `json:"linkedinUrl"`
	Languages   []string `json:"languages"`
	Program     string   `json:"program"`
	Background  string   `json:"background"`
	Image       string   `json:"image"`
	Cohort      string   `json:"cohort"`
	Projects    []string `json:"projects"`
}

func (req StudentUpsertRequest) toStudent() (types.Student, error) {
	student := types.Student{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		LinkedinURL: req.LinkedinURL,
		Languages:   req.Languages,
		Program:     req.Program,
		Background:  req.Background,
		Image:       req.Image,
		Projects:    req.Projects,
	}
	if strings.TrimSpace(req.Cohort) != "" {
		cohortID, err := bson.ObjectIDFromHex(req.Cohort)
		if err != nil {
			return types.Student{}, errors.New("invalid cohort id")
		}
		student.CohortID = cohortID
	}
	return student, nil
}

func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching students")
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) ListStudentsByCohort(w http.ResponseWriter, r *http.Request) {
	cohortID, err := bson.ObjectIDFromHex(chi.URLParam(r, "cohortId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cohort id")
		return
	}

	students, err := h.studentService.ListByCohort(r.Context(), cohortID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching students")
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseStudentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid student id")
		return
	}

	student, err := h.studentService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	student, err := req.toStudent()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cohort id")
		return
	}

	created, err := h.studentService.Create(r.Context(), student)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating student")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseStudentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid student id")
		return
	}

	var req StudentUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	student, err := req.toStudent()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cohort id")
		return
	}
	student.ID = id

	updated, err := h.studentService.Update(r.Context(), student)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error updating student")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseStudentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid student id")
		return
	}

	if err := h.studentService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error deleting student")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StudentHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseStudentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid student id")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, fileHeader, err := r.FormFile(formFieldAvatar)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Avatar file is required")
		return
	}
	data, err := readFileLimited(file, maxAvatarBytes)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	student, err := h.studentService.UploadAvatar(r.Context(), id, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStorageDisabled):
			writeError(w, http.StatusNotImplemented, "Avatar storage is not configured")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Student not found")
		default:
			writeError(w, http.StatusInternalServerError, "Error uploading avatar")
		}
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseStudentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid student id")
		return
	}

	reader, contentType, err := h.studentService.OpenAvatar(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStorageDisabled):
			writeError(w, http.StatusNotImplemented, "Avatar storage is not configured")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Avatar not found")
		default:
			writeError(w, http.StatusInternalServerError, "Error fetching avatar")
		}
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	_, _ = io.Copy(w, reader)
}

func parseStudentID(r *http.Request) (bson.ObjectID, error) {
	return bson.ObjectIDFromHex(chi.URLParam(r, "studentId"))
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
