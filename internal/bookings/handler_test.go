package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospero-bookings/backend/internal/models"
)

type mockService struct {
	listFn    func(ctx context.Context, limit, offset int) ([]*models.Booking, error)
	getFn     func(ctx context.Context, id string) (*models.Booking, error)
	createFn  func(ctx context.Context, in *CreateInput) (*models.Booking, error)
	editFn    func(ctx context.Context, id string, patch *Patch) (*models.Booking, error)
	deleteFn  func(ctx context.Context, id string) (*models.Booking, error)
	approveFn func(ctx context.Context, id string) (*models.Booking, error)
	denyFn    func(ctx context.Context, id string) (*models.Booking, error)
	cancelFn  func(ctx context.Context, id string) (*models.Booking, error)
}

func (m *mockService) List(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
	return m.listFn(ctx, limit, offset)
}
func (m *mockService) Get(ctx context.Context, id string) (*models.Booking, error) {
	return m.getFn(ctx, id)
}
func (m *mockService) Create(ctx context.Context, in *CreateInput) (*models.Booking, error) {
	return m.createFn(ctx, in)
}
func (m *mockService) Edit(ctx context.Context, id string, patch *Patch) (*models.Booking, error) {
	return m.editFn(ctx, id, patch)
}
func (m *mockService) Delete(ctx context.Context, id string) (*models.Booking, error) {
	return m.deleteFn(ctx, id)
}
func (m *mockService) Approve(ctx context.Context, id string) (*models.Booking, error) {
	return m.approveFn(ctx, id)
}
func (m *mockService) Deny(ctx context.Context, id string) (*models.Booking, error) {
	return m.denyFn(ctx, id)
}
func (m *mockService) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	return m.cancelFn(ctx, id)
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, nil).RegisterRoutes(r)
	return r
}

func perform(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func testBooking() *models.Booking {
	return &models.Booking{
		ID:        uuid.MustParse("a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"),
		CreatedAt: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
		OrgID:     uuid.New(),
		Status:    models.StatusPending,
		Contact:   models.Contact{Name: "Ada Kim", Email: "ada@example.com"},
		Event: models.Event{
			Title:      "Budget review",
			LocationID: uuid.New(),
			Start:      time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC),
			End:        time.Date(2026, 1, 20, 11, 0, 0, 0, time.UTC),
		},
	}
}

func TestListHandler(t *testing.T) {
	t.Run("empty table", func(t *testing.T) {
		svc := &mockService{listFn: func(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
			return nil, ErrNoBookings
		}}
		w, env := perform(t, setupRouter(svc), http.MethodGet, "/api/bookings", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, 404, env.Status)
		assert.Equal(t, "No data in the bookings table", env.Message)
		assert.Equal(t, "[]", string(env.Data), "empty list still ships an empty array")
	})

	t.Run("with rows", func(t *testing.T) {
		var gotLimit, gotOffset int
		svc := &mockService{listFn: func(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
			gotLimit, gotOffset = limit, offset
			return []*models.Booking{testBooking()}, nil
		}}
		w, env := perform(t, setupRouter(svc), http.MethodGet, "/api/bookings?limit=10&offset=5", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "All data from bookings table retrieved", env.Message)
		assert.Equal(t, 10, gotLimit)
		assert.Equal(t, 5, gotOffset)

		var list []map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &list))
		require.Len(t, list, 1)
		assert.Equal(t, "PENDING", list[0]["status"])
	})

	t.Run("defaults", func(t *testing.T) {
		svc := &mockService{listFn: func(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
			assert.Equal(t, 50, limit)
			assert.Equal(t, 0, offset)
			return []*models.Booking{testBooking()}, nil
		}}
		w, _ := perform(t, setupRouter(svc), http.MethodGet, "/api/bookings", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("negative limit rejected", func(t *testing.T) {
		svc := &mockService{listFn: func(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
			t.Fatal("service must not be called")
			return nil, nil
		}}
		w, env := perform(t, setupRouter(svc), http.MethodGet, "/api/bookings?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "limit must be a non-negative integer", env.Message)
	})
}

func TestGetHandler(t *testing.T) {
	id := "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"

	t.Run("found", func(t *testing.T) {
		svc := &mockService{getFn: func(ctx context.Context, got string) (*models.Booking, error) {
			assert.Equal(t, id, got)
			return testBooking(), nil
		}}
		w, env := perform(t, setupRouter(svc), http.MethodGet, "/api/bookings/"+id, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Retrieved data for booking id "+id, env.Message)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockService{getFn: func(ctx context.Context, got string) (*models.Booking, error) {
			return nil, ErrNotFound
		}}
		w, env := perform(t, setupRouter(svc), http.MethodGet, "/api/bookings/"+id, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "No data for the booking id "+id, env.Message)
		assert.Equal(t, "null", string(env.Data))
	})

	t.Run("malformed id", func(t *testing.T) {
		svc := &mockService{getFn: func(ctx context.Context, got string) (*models.Booking, error) {
			return nil, invalid("id", "must be a valid UUID")
		}}
		w, env := perform(t, setupRouter(svc), http.MethodGet, "/api/bookings/123", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Error while validating data, id: must be a valid UUID", env.Message)
	})
}

func TestCreateHandler(t *testing.T) {
	body := map[string]interface{}{
		"contact": map[string]string{"name": "Ada Kim", "email": "ada@example.com"},
		"event": map[string]string{
			"title": "Budget review",
			"start": "2026-01-20T10:00:00Z",
			"end":   "2026-01-20T11:00:00Z",
		},
	}

	t.Run("success", func(t *testing.T) {
		svc := &mockService{createFn: func(ctx context.Context, in *CreateInput) (*models.Booking, error) {
			assert.Equal(t, "Ada Kim", in.ContactName)
			assert.Equal(t, "2026-01-20T10:00:00Z", in.EventStart)
			assert.Nil(t, in.RequestNote)
			return testBooking(), nil
		}}
		w, env := perform(t, setupRouter(svc), http.MethodPost, "/api/bookings", body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Added a new booking", env.Message)

		var data map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "PENDING", data["status"])
	})

	t.Run("validation failure", func(t *testing.T) {
		svc := &mockService{createFn: func(ctx context.Context, in *CreateInput) (*models.Booking, error) {
			ve := &ValidationError{}
			ve.add("contact_email", "must be a valid email address")
			return nil, ve
		}}
		w, env := perform(t, setupRouter(svc), http.MethodPost, "/api/bookings", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Error while validating data, contact_email: must be a valid email address", env.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := &mockService{createFn: func(ctx context.Context, in *CreateInput) (*models.Booking, error) {
			t.Fatal("service must not be called")
			return nil, nil
		}}
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		setupRouter(svc).ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEditHandler(t *testing.T) {
	id := "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"

	t.Run("partial contact patch", func(t *testing.T) {
		svc := &mockService{editFn: func(ctx context.Context, got string, patch *Patch) (*models.Booking, error) {
			require.NotNil(t, patch.ContactEmail)
			assert.Equal(t, "new@example.com", *patch.ContactEmail)
			assert.Nil(t, patch.ContactName)
			assert.Nil(t, patch.EventTitle)
			assert.Nil(t, patch.Status)
			return testBooking(), nil
		}}
		body := map[string]interface{}{"contact": map[string]string{"email": "new@example.com"}}
		w, env := perform(t, setupRouter(svc), http.MethodPatch, "/api/bookings/"+id, body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Booking id "+id+" edited", env.Message)
	})

	t.Run("status by name", func(t *testing.T) {
		svc := &mockService{editFn: func(ctx context.Context, got string, patch *Patch) (*models.Booking, error) {
			require.NotNil(t, patch.Status)
			assert.Equal(t, models.StatusDenied, *patch.Status)
			return testBooking(), nil
		}}
		body := map[string]interface{}{"status": "DENIED"}
		w, _ := perform(t, setupRouter(svc), http.MethodPatch, "/api/bookings/"+id, body)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("nothing to update", func(t *testing.T) {
		svc := &mockService{editFn: func(ctx context.Context, got string, patch *Patch) (*models.Booking, error) {
			return nil, ErrNothingToUpdate
		}}
		w, env := perform(t, setupRouter(svc), http.MethodPatch, "/api/bookings/"+id, map[string]interface{}{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No data to update for booking id "+id, env.Message)
	})
}

func TestDeleteHandler(t *testing.T) {
	id := "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
	svc := &mockService{deleteFn: func(ctx context.Context, got string) (*models.Booking, error) {
		return testBooking(), nil
	}}
	w, env := perform(t, setupRouter(svc), http.MethodDelete, "/api/bookings/"+id, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Booking id "+id+" deleted", env.Message)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, id, data["id"], "deleted record is echoed back")
}

func TestApproveHandler(t *testing.T) {
	id := "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"

	t.Run("success", func(t *testing.T) {
		svc := &mockService{approveFn: func(ctx context.Context, got string) (*models.Booking, error) {
			b := testBooking()
			b.Status = models.StatusApproved
			return b, nil
		}}
		w, env := perform(t, setupRouter(svc), http.MethodPost, "/api/bookings/"+id+"/approve", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Email correctly sent to email address: ada@example.com", env.Message)

		var data map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "APPROVED", data["status"])
	})

	t.Run("already approved", func(t *testing.T) {
		svc := &mockService{approveFn: func(ctx context.Context, got string) (*models.Booking, error) {
			return nil, ErrAlreadyApproved
		}}
		w, env := perform(t, setupRouter(svc), http.MethodPost, "/api/bookings/"+id+"/approve", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "The booking id "+id+" has already been approved", env.Message)
	})

	t.Run("email dispatch failed", func(t *testing.T) {
		svc := &mockService{approveFn: func(ctx context.Context, got string) (*models.Booking, error) {
			b := testBooking()
			b.Status = models.StatusApproved
			return b, ErrNotificationFailed
		}}
		w, env := perform(t, setupRouter(svc), http.MethodPost, "/api/bookings/"+id+"/approve", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Error while trying to send the confirmation email", env.Message)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockService{approveFn: func(ctx context.Context, got string) (*models.Booking, error) {
			return nil, ErrNotFound
		}}
		w, _ := perform(t, setupRouter(svc), http.MethodPost, "/api/bookings/"+id+"/approve", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDenyHandler(t *testing.T) {
	id := "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
	svc := &mockService{denyFn: func(ctx context.Context, got string) (*models.Booking, error) {
		return nil, ErrNotPending
	}}
	w, env := perform(t, setupRouter(svc), http.MethodPost, "/api/bookings/"+id+"/deny", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "The booking id "+id+" is not pending", env.Message)
}

func TestCancelHandler(t *testing.T) {
	id := "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
	svc := &mockService{cancelFn: func(ctx context.Context, got string) (*models.Booking, error) {
		return nil, ErrAlreadyCancelled
	}}
	w, env := perform(t, setupRouter(svc), http.MethodPost, "/api/bookings/"+id+"/cancel", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "The booking id "+id+" is already cancelled", env.Message)
}

func TestStorageFaultHidesInternals(t *testing.T) {
	svc := &mockService{listFn: func(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
		return nil, &StorageError{Op: "list bookings", Err: context.DeadlineExceeded}
	}}
	w, env := perform(t, setupRouter(svc), http.MethodGet, "/api/bookings", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error while getting all the bookings", env.Message)
	assert.NotContains(t, env.Message, "deadline")
}
