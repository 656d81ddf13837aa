package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"patas-conectadas/backend/internal/cache"
	"patas-conectadas/backend/internal/database/dbtest"
	"patas-conectadas/backend/internal/handlers"
	"patas-conectadas/backend/internal/repositories"
	"patas-conectadas/backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newApp(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	log := zap.NewNop()

	volunteerRepo := repositories.NewVolunteerRepository(db, log)
	animalRepo := repositories.NewAnimalRepository(db)

	taskSvc := services.NewTaskService(
		repositories.NewTaskRepository(db, log),
		repositories.NewTaskStatusRepository(db),
		volunteerRepo,
		animalRepo,
		log,
	)
	volunteerSvc := services.NewCachedVolunteerService(
		services.NewVolunteerService(volunteerRepo, log),
		cache.NewMultiLevelCache(nil),
		time.Minute,
		log,
	)
	prefSvc := services.NewPreferenceService(repositories.NewPreferenceRepository(db), volunteerRepo)
	animalSvc := services.NewAnimalService(animalRepo, repositories.NewAnimalStatusRepository(db))

	router := gin.New()
	handlers.NewVolunteerHandler(volunteerSvc, taskSvc, log).Register(router)
	handlers.NewPreferenceHandler(prefSvc, log).Register(router)
	handlers.NewTaskHandler(taskSvc, log).Register(router)
	handlers.NewAnimalHandler(animalSvc, log).Register(router)
	return router
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body err=%v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q err=%v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, want, rr.Body.String())
	}
}

type volunteerBody struct {
	ID     uint     `json:"id"`
	Name   string   `json:"name"`
	CPF    string   `json:"cpf"`
	Email  string   `json:"email"`
	Skills []string `json:"skills"`
}

type taskBody struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	AssignedTo *struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	} `json:"assigned_to"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func joao() map[string]any {
	return map[string]any{
		"name":  "João Silva",
		"cpf":   "12345678901",
		"email": "joao@x.com",
		"phone": "11999999999",
	}
}

func createVolunteer(t *testing.T, app http.Handler, body map[string]any) volunteerBody {
	t.Helper()
	rr := doJSON(t, app, http.MethodPost, "/volunteers", body)
	expectStatus(t, rr, http.StatusCreated)
	return decode[volunteerBody](t, rr)
}

func TestVolunteers_DuplicateCPF(t *testing.T) {
	app := newApp(t)

	v := createVolunteer(t, app, joao())
	if v.ID == 0 || v.Name != "João Silva" || v.Skills == nil {
		t.Fatalf("unexpected volunteer %+v", v)
	}

	dup := joao()
	dup["email"] = "other@x.com"
	dup["name"] = "Outro Nome"
	rr := doJSON(t, app, http.MethodPost, "/volunteers", dup)
	expectStatus(t, rr, http.StatusConflict)
	if e := decode[errorBody](t, rr); e.Error != "conflict" || e.Message != "cpf already registered" {
		t.Errorf("error body = %+v", e)
	}

	dup = joao()
	dup["cpf"] = "10987654321"
	rr = doJSON(t, app, http.MethodPost, "/volunteers", dup)
	expectStatus(t, rr, http.StatusConflict)
	if e := decode[errorBody](t, rr); e.Message != "email already registered" {
		t.Errorf("error body = %+v", e)
	}
}

func TestVolunteers_Validation(t *testing.T) {
	app := newApp(t)

	tests := []struct {
		name  string
		field string
		value any
	}{
		{"cpf with letters", "cpf", "1234567890a"},
		{"cpf too short", "cpf", "1234567890"},
		{"cpf too long", "cpf", "123456789012"},
		{"bad email", "email", "joao-at-x"},
		{"missing name", "name", ""},
		{"missing phone", "phone", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := joao()
			body[tt.field] = tt.value
			rr := doJSON(t, app, http.MethodPost, "/volunteers", body)
			expectStatus(t, rr, http.StatusBadRequest)
			if e := decode[errorBody](t, rr); e.Error != "validation_error" {
				t.Errorf("error = %q", e.Error)
			}
		})
	}
}

func TestVolunteers_CRUD(t *testing.T) {
	app := newApp(t)
	v := createVolunteer(t, app, joao())
	other := joao()
	other["cpf"], other["email"] = "22222222222", "maria@x.com"
	maria := createVolunteer(t, app, other)

	rr := doJSON(t, app, http.MethodGet, "/volunteers", nil)
	expectStatus(t, rr, http.StatusOK)
	list := decode[[]volunteerBody](t, rr)
	if len(list) != 2 || list[0].ID != maria.ID {
		t.Errorf("list = %+v, want newest first", list)
	}

	rr = doJSON(t, app, http.MethodPut, fmt.Sprintf("/volunteers/%d", v.ID), map[string]any{"email": "maria@x.com"})
	expectStatus(t, rr, http.StatusConflict)

	// own values do not collide with themselves
	rr = doJSON(t, app, http.MethodPut, fmt.Sprintf("/volunteers/%d", v.ID), map[string]any{
		"cpf":    "12345678901",
		"skills": []string{"dogs"},
	})
	expectStatus(t, rr, http.StatusOK)
	if got := decode[volunteerBody](t, rr); len(got.Skills) != 1 || got.Name != "João Silva" {
		t.Errorf("updated = %+v", got)
	}

	rr = doJSON(t, app, http.MethodPut, "/volunteers/999999", map[string]any{"name": "x"})
	expectStatus(t, rr, http.StatusNotFound)

	rr = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/volunteers/%d", v.ID), nil)
	expectStatus(t, rr, http.StatusNoContent)
	rr = doJSON(t, app, http.MethodGet, fmt.Sprintf("/volunteers/%d", v.ID), nil)
	expectStatus(t, rr, http.StatusNotFound)
	rr = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/volunteers/%d", v.ID), nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = doJSON(t, app, http.MethodGet, "/volunteers", nil)
	if list := decode[[]volunteerBody](t, rr); len(list) != 1 {
		t.Errorf("list after delete = %+v", list)
	}
}

func TestTasks_Lifecycle(t *testing.T) {
	app := newApp(t)
	v := createVolunteer(t, app, joao())

	rr := doJSON(t, app, http.MethodPost, "/tasks", map[string]any{
		"title":       "Clean kennel",
		"description": "Kennels 1 to 4",
		"due_date":    "2025-03-01",
	})
	expectStatus(t, rr, http.StatusCreated)
	task := decode[taskBody](t, rr)
	if task.Status != "pending" || task.AssignedTo != nil {
		t.Fatalf("created task = %+v", task)
	}
	path := fmt.Sprintf("/tasks/%d", task.ID)

	rr = doJSON(t, app, http.MethodPost, path+"/assign", map[string]any{"volunteer_id": 999999})
	expectStatus(t, rr, http.StatusNotFound)

	rr = doJSON(t, app, http.MethodPost, path+"/assign", map[string]any{"volunteer_id": v.ID})
	expectStatus(t, rr, http.StatusOK)
	task = decode[taskBody](t, rr)
	if task.Status != "assigned" || task.AssignedTo == nil || task.AssignedTo.ID != v.ID || task.AssignedTo.Name != "João Silva" {
		t.Fatalf("assigned task = %+v", task)
	}

	rr = doJSON(t, app, http.MethodPost, path+"/assign", map[string]any{"volunteer_id": v.ID})
	expectStatus(t, rr, http.StatusBadRequest)
	if e := decode[errorBody](t, rr); e.Error != "invalid_transition" || e.Message != "only pending tasks can be assigned" {
		t.Errorf("error body = %+v", e)
	}

	rr = doJSON(t, app, http.MethodPatch, path+"/complete", nil)
	expectStatus(t, rr, http.StatusOK)
	if task = decode[taskBody](t, rr); task.Status != "completed" {
		t.Fatalf("completed task = %+v", task)
	}

	rr = doJSON(t, app, http.MethodPatch, path+"/complete", nil)
	expectStatus(t, rr, http.StatusBadRequest)
	if e := decode[errorBody](t, rr); e.Message != "only assigned tasks can be completed" {
		t.Errorf("error body = %+v", e)
	}

	rr = doJSON(t, app, http.MethodGet, fmt.Sprintf("/volunteers/%d/tasks", v.ID), nil)
	expectStatus(t, rr, http.StatusOK)
	if list := decode[[]taskBody](t, rr); len(list) != 1 || list[0].ID != task.ID {
		t.Errorf("volunteer tasks = %+v", list)
	}
	rr = doJSON(t, app, http.MethodGet, "/volunteers/999999/tasks", nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestTasks_CreateValidation(t *testing.T) {
	app := newApp(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing title", map[string]any{"description": "d"}, http.StatusBadRequest},
		{"blank title", map[string]any{"title": "  ", "description": "d"}, http.StatusBadRequest},
		{"missing description", map[string]any{"title": "t"}, http.StatusBadRequest},
		{"bad due date", map[string]any{"title": "t", "description": "d", "due_date": "tomorrow"}, http.StatusBadRequest},
		{"unknown animal", map[string]any{"title": "t", "description": "d", "animal_id": 77}, http.StatusNotFound},
		{"rfc3339 due date", map[string]any{"title": "t", "description": "d", "due_date": "2025-03-01T10:00:00Z"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, app, http.MethodPost, "/tasks", tt.body)
			expectStatus(t, rr, tt.want)
		})
	}
}

func TestTasks_Delete(t *testing.T) {
	app := newApp(t)
	v := createVolunteer(t, app, joao())

	rr := doJSON(t, app, http.MethodPost, "/tasks", map[string]any{"title": "Walk dogs", "description": "d"})
	expectStatus(t, rr, http.StatusCreated)
	path := fmt.Sprintf("/tasks/%d", decode[taskBody](t, rr).ID)
	expectStatus(t, doJSON(t, app, http.MethodPost, path+"/assign", map[string]any{"volunteer_id": v.ID}), http.StatusOK)

	rr = doJSON(t, app, http.MethodDelete, path, nil)
	expectStatus(t, rr, http.StatusNoContent)
	expectStatus(t, doJSON(t, app, http.MethodGet, path, nil), http.StatusNotFound)
	expectStatus(t, doJSON(t, app, http.MethodDelete, path, nil), http.StatusNotFound)

	rr = doJSON(t, app, http.MethodGet, fmt.Sprintf("/volunteers/%d/tasks", v.ID), nil)
	expectStatus(t, rr, http.StatusOK)
	if tasks := decode[[]taskBody](t, rr); len(tasks) != 0 {
		t.Errorf("volunteer still lists deleted task: %+v", tasks)
	}
}

func TestTasks_ListFilters(t *testing.T) {
	app := newApp(t)
	v := createVolunteer(t, app, joao())

	var ids []uint
	for _, title := range []string{"one", "two", "three"} {
		rr := doJSON(t, app, http.MethodPost, "/tasks", map[string]any{"title": title, "description": "d"})
		expectStatus(t, rr, http.StatusCreated)
		ids = append(ids, decode[taskBody](t, rr).ID)
	}
	doJSON(t, app, http.MethodPost, fmt.Sprintf("/tasks/%d/assign", ids[0]), map[string]any{"volunteer_id": v.ID})

	tests := []struct {
		query string
		want  int
		code  int
	}{
		{"", 3, http.StatusOK},
		{"?status=pending", 2, http.StatusOK},
		{"?status=assigned", 1, http.StatusOK},
		{"?status=completed", 0, http.StatusOK},
		{"?status=unknown", 0, http.StatusOK},
		{fmt.Sprintf("?assigned_to=%d", v.ID), 1, http.StatusOK},
		{fmt.Sprintf("?status=pending&assigned_to=%d", v.ID), 0, http.StatusOK},
		{"?assigned_to=abc", 0, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := doJSON(t, app, http.MethodGet, "/tasks"+tt.query, nil)
			expectStatus(t, rr, tt.code)
			if tt.code != http.StatusOK {
				return
			}
			list := decode[[]taskBody](t, rr)
			if len(list) != tt.want {
				t.Errorf("got %d tasks, want %d", len(list), tt.want)
			}
		})
	}

	rr := doJSON(t, app, http.MethodGet, "/tasks?status=pending", nil)
	for _, task := range decode[[]taskBody](t, rr) {
		if task.Status != "pending" {
			t.Errorf("status filter leaked %+v", task)
		}
	}
}

func TestPreferences_Scenario(t *testing.T) {
	app := newApp(t)

	rr := doJSON(t, app, http.MethodPost, "/volunteers/999999/preferences", map[string]any{"preferences": []string{"cats"}})
	expectStatus(t, rr, http.StatusNotFound)

	v := createVolunteer(t, app, joao())
	base := fmt.Sprintf("/volunteers/%d/preferences", v.ID)

	rr = doJSON(t, app, http.MethodPost, base, map[string]any{"preferences": []string{"cats"}})
	expectStatus(t, rr, http.StatusCreated)
	type prefBody struct {
		ID          uint   `json:"id"`
		VolunteerID uint   `json:"volunteer_id"`
		Preference  string `json:"preference"`
	}
	created := decode[[]prefBody](t, rr)
	if len(created) != 1 || created[0].Preference != "cats" || created[0].VolunteerID != v.ID {
		t.Fatalf("created = %+v", created)
	}

	rr = doJSON(t, app, http.MethodGet, base, nil)
	expectStatus(t, rr, http.StatusOK)
	if list := decode[[]prefBody](t, rr); len(list) != 1 || list[0].ID != created[0].ID {
		t.Fatalf("list = %+v", list)
	}

	rr = doJSON(t, app, http.MethodPost, base, map[string]any{"preferences": []string{}})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = doJSON(t, app, http.MethodDelete, fmt.Sprintf("%s/%d", base, created[0].ID), nil)
	expectStatus(t, rr, http.StatusNoContent)

	rr = doJSON(t, app, http.MethodGet, base, nil)
	expectStatus(t, rr, http.StatusOK)
	if list := decode[[]prefBody](t, rr); len(list) != 0 {
		t.Fatalf("list after delete = %+v", list)
	}

	rr = doJSON(t, app, http.MethodDelete, fmt.Sprintf("%s/%d", base, created[0].ID), nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestAnimals_CRUD(t *testing.T) {
	app := newApp(t)

	rr := doJSON(t, app, http.MethodPost, "/animals", map[string]any{"name": "Rex"})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = doJSON(t, app, http.MethodPost, "/animals", map[string]any{
		"name":        "Rex",
		"species":     "dog",
		"sex":         "M",
		"rescue_date": "2024-11-20",
		"status":      "available",
	})
	expectStatus(t, rr, http.StatusCreated)
	type animalBody struct {
		ID     uint `json:"id"`
		Status *struct {
			Name string `json:"name"`
		} `json:"status"`
	}
	animal := decode[animalBody](t, rr)
	if animal.Status == nil || animal.Status.Name != "available" {
		t.Fatalf("animal = %+v", animal)
	}

	rr = doJSON(t, app, http.MethodPost, "/tasks", map[string]any{"title": "Vaccinate", "description": "V10", "animal_id": animal.ID})
	expectStatus(t, rr, http.StatusCreated)

	path := fmt.Sprintf("/animals/%d", animal.ID)
	rr = doJSON(t, app, http.MethodPut, path, map[string]any{"status": "adopted"})
	expectStatus(t, rr, http.StatusOK)
	if got := decode[animalBody](t, rr); got.Status == nil || got.Status.Name != "adopted" {
		t.Errorf("updated = %+v", got)
	}

	rr = doJSON(t, app, http.MethodPost, "/animals", map[string]any{"name": "Mia", "species": "cat", "sex": "X"})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = doJSON(t, app, http.MethodDelete, path, nil)
	expectStatus(t, rr, http.StatusNoContent)
	rr = doJSON(t, app, http.MethodGet, path, nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestInvalidPathIDs(t *testing.T) {
	app := newApp(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/volunteers/abc"},
		{http.MethodGet, "/volunteers/0"},
		{http.MethodGet, "/tasks/-1"},
		{http.MethodPatch, "/tasks/x/complete"},
		{http.MethodDelete, "/volunteers/1/preferences/abc"},
		{http.MethodGet, "/animals/1.5"},
	} {
		rr := doJSON(t, app, tc.method, tc.path, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s %s status=%d want=400", tc.method, tc.path, rr.Code)
		}
	}
}
