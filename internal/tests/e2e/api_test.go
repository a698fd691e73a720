//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/cohort-tools/apiserver/config"
	"github.com/cohort-tools/apiserver/internal/server"
)

const (
	serverPort   = 15005
	databaseName = "cohort-tools-e2e"
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	setTestEnv()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d", "mongo"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForMongo(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "mongo not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestAuthLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	email := fmt.Sprintf("user_%d@example.com", time.Now().UnixNano())
	password := "testpass123!"

	token, err := signup(t, baseURL, email, password, "Test User")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := signup(t, baseURL, email, password, "Copycat"); err == nil {
		t.Fatalf("expected duplicate signup to fail")
	}

	loginToken, err := login(t, baseURL, email, password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loginToken == "" {
		t.Fatalf("missing token in login response")
	}

	claims, err := verifyToken(t, baseURL, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.User.Email != email || claims.User.Name != "Test User" {
		t.Fatalf("unexpected claims: %+v", claims.User)
	}

	if _, err := verifyToken(t, baseURL, "garbage-token"); err == nil {
		t.Fatalf("expected verify with a garbage token to fail")
	}
}

func TestCohortAndStudentLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	email := fmt.Sprintf("staff_%d@example.com", time.Now().UnixNano())

	token, err := signup(t, baseURL, email, "testpass123!", "Staff User")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	cohort, err := createCohort(t, baseURL, token)
	if err != nil {
		t.Fatalf("create cohort: %v", err)
	}
	if cohort.ID == "" {
		t.Fatalf("expected cohort id to be set")
	}

	student, err := createStudent(t, baseURL, token, cohort.ID)
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	if student.Cohort == nil || student.Cohort.ID != cohort.ID {
		t.Fatalf("expected student response to resolve the cohort, got %+v", student.Cohort)
	}

	students, err := listStudentsByCohort(t, baseURL, token, cohort.ID)
	if err != nil {
		t.Fatalf("list students by cohort: %v", err)
	}
	if len(students) != 1 || students[0].ID != student.ID {
		t.Fatalf("unexpected cohort roster: %+v", students)
	}

	if err := deleteResource(t, baseURL, token, "/api/students/"+student.ID); err != nil {
		t.Fatalf("delete student: %v", err)
	}
	if err := deleteResource(t, baseURL, token, "/api/cohorts/"+cohort.ID); err != nil {
		t.Fatalf("delete cohort: %v", err)
	}

	if status, _ := get(t, baseURL+"/api/cohorts/"+cohort.ID, token); status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)

	status, body := get(t, baseURL+"/api/cohorts", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d: %s", status, body)
	}
}

type authResponse struct {
	AuthToken string `json:"authToken"`
}

type verifyResponse struct {
	User struct {
		UserID string `json:"_id"`
		Email  string `json:"email"`
		Name   string `json:"name"`
	} `json:"user"`
}

type cohortResponse struct {
	ID         string `json:"_id"`
	CohortSlug string `json:"cohortSlug"`
}

type studentResponse struct {
	ID     string          `json:"_id"`
	Cohort *cohortResponse `json:"cohort"`
}

func signup(t *testing.T, baseURL, email, password, name string) (string, error) {
	t.Helper()

	payload := map[string]string{"email": email, "password": password, "name": name}
	status, body, err := postJSON(baseURL+"/auth/signup", "", payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("signup status %d: %s", status, body)
	}

	var parsed authResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return "", err
	}
	if parsed.AuthToken == "" {
		return "", fmt.Errorf("missing token in signup response")
	}
	return parsed.AuthToken, nil
}

func login(t *testing.T, baseURL, email, password string) (string, error) {
	t.Helper()

	payload := map[string]string{"email": email, "password": password}
	status, body, err := postJSON(baseURL+"/auth/login", "", payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("login status %d: %s", status, body)
	}

	var parsed authResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return "", err
	}
	return parsed.AuthToken, nil
}

func verifyToken(t *testing.T, baseURL, token string) (verifyResponse, error) {
	t.Helper()

	status, body := get(t, baseURL+"/auth/verify", token)
	if status != http.StatusOK {
		return verifyResponse{}, fmt.Errorf("verify status %d: %s", status, body)
	}

	var parsed verifyResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return verifyResponse{}, err
	}
	return parsed, nil
}

func createCohort(t *testing.T, baseURL, token string) (cohortResponse, error) {
	t.Helper()

	payload := map[string]any{
		"cohortSlug":     fmt.Sprintf("ft-wd-%d", time.Now().UnixNano()),
		"cohortName":     "FT Web Dev",
		"program":        "Web Dev",
		"format":         "Full Time",
		"campus":         "Madrid",
		"inProgress":     false,
		"programManager": "Grace Hopper",
		"leadTeacher":    "Alan Kay",
		"totalHours":     360,
	}
	status, body, err := postJSON(baseURL+"/api/cohorts", token, payload)
	if err != nil {
		return cohortResponse{}, err
	}
	if status != http.StatusCreated {
		return cohortResponse{}, fmt.Errorf("create cohort status %d: %s", status, body)
	}

	var parsed cohortResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return cohortResponse{}, err
	}
	return parsed, nil
}

func createStudent(t *testing.T, baseURL, token, cohortID string) (studentResponse, error) {
	t.Helper()

	payload := map[string]any{
		"firstName":  "Grace",
		"lastName":   "Hopper",
		"email":      fmt.Sprintf("grace_%d@example.com", time.Now().UnixNano()),
		"phone":      "123-456-789",
		"languages":  []string{"English"},
		"program":    "Web Dev",
		"background": "Mathematics",
		"cohort":     cohortID,
		"projects":   []string{},
	}
	status, body, err := postJSON(baseURL+"/api/students", token, payload)
	if err != nil {
		return studentResponse{}, err
	}
	if status != http.StatusCreated {
		return studentResponse{}, fmt.Errorf("create student status %d: %s", status, body)
	}

	var parsed studentResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return studentResponse{}, err
	}
	return parsed, nil
}

func listStudentsByCohort(t *testing.T, baseURL, token, cohortID string) ([]studentResponse, error) {
	t.Helper()

	status, body := get(t, baseURL+"/api/students/cohort/"+cohortID, token)
	if status != http.StatusOK {
		return nil, fmt.Errorf("list students status %d: %s", status, body)
	}

	var parsed []studentResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func deleteResource(t *testing.T, baseURL, token, path string) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func postJSON(url, token string, payload any) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, strings.TrimSpace(string(raw)), nil
}

func get(t *testing.T, url, token string) (int, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, strings.TrimSpace(string(raw))
}

func waitForMongo(ctx context.Context) error {
	cfg := config.LoadConfig()
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx, readpref.Primary())
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("mongo ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Mongo.URI, "/"), cfg.Mongo.Database)
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setTestEnv() {
	_ = os.Setenv("TOKEN_SECRET", "test-secret")
	_ = os.Setenv("PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("MONGODB_URI", "mongodb://127.0.0.1:27017")
	_ = os.Setenv("MONGODB_DATABASE", databaseName)
	_ = os.Setenv("STORAGE_BACKEND", "")
	_ = os.Setenv("MQ_BACKEND", "")
}

func startServer() (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
