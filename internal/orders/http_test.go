package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/order-api/internal/storage"
)

type stubStore struct {
	orders  map[int64]storage.Order
	nextID  int64
	err     error
	created []string
}

func newStubStore() *stubStore {
	return &stubStore{orders: make(map[int64]storage.Order), nextID: 1}
}

func (s *stubStore) Create(_ context.Context, description string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	id := s.nextID
	s.nextID++
	s.orders[id] = storage.Order{ID: id, Description: description, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	s.created = append(s.created, description)
	return id, nil
}

func (s *stubStore) Get(_ context.Context, id int64) (*storage.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &o, nil
}

func (s *stubStore) List(context.Context) ([]storage.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	list := make([]storage.Order, 0, len(s.orders))
	for id := int64(1); id < s.nextID; id++ {
		if o, ok := s.orders[id]; ok {
			list = append(list, o)
		}
	}
	return list, nil
}

func (s *stubStore) Deactivate(_ context.Context, id int64) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if _, ok := s.orders[id]; !ok {
		return 0, nil
	}
	delete(s.orders, id)
	return 1, nil
}

func newOrderRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := gin.New()
	router.POST("/create_order", CreateHandler(store, logger))
	router.GET("/get_one", GetHandler(store, logger))
	router.GET("/order_list", ListHandler(store, logger))
	router.GET("/delete_order", DeleteHandler(store, logger))
	router.DELETE("/delete_order", DeleteHandler(store, logger))
	return router
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateHandler(t *testing.T) {
	store := newStubStore()
	router := newOrderRouter(store)

	rec := serve(router, http.MethodPost, "/create_order", `{"description":"two pizzas"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"msg":"Order created","results":{"orderId":1}}`, rec.Body.String())
	assert.Equal(t, []string{"two pizzas"}, store.created)
}

func TestCreateHandlerRequiresDescription(t *testing.T) {
	store := newStubStore()
	router := newOrderRouter(store)

	rec := serve(router, http.MethodPost, "/create_order", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.created)
}

func TestGetHandler(t *testing.T) {
	store := newStubStore()
	_, _ = store.Create(context.Background(), "coffee")
	router := newOrderRouter(store)

	rec := serve(router, http.MethodGet, "/get_one?order_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"msg":"Order fetched","results":{"orderId":1,"description":"coffee","createdAt":"2026-01-02T03:04:05Z"}}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/get_one?order_id=99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgNotFound)
}

func TestGetHandlerInvalidID(t *testing.T) {
	router := newOrderRouter(newStubStore())

	for _, q := range []string{"", "?order_id=", "?order_id=abc", "?order_id=0", "?order_id=-3"} {
		rec := serve(router, http.MethodGet, "/get_one"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestListHandler(t *testing.T) {
	store := newStubStore()
	_, _ = store.Create(context.Background(), "a")
	_, _ = store.Create(context.Background(), "b")
	router := newOrderRouter(store)

	rec := serve(router, http.MethodGet, "/order_list", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"msg":"Order list fetched (2 records)"`)
}

func TestListHandlerEmptyIsArray(t *testing.T) {
	router := newOrderRouter(newStubStore())

	rec := serve(router, http.MethodGet, "/order_list", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"msg":"Order list fetched (0 records)","results":[]}`, rec.Body.String())
}

func TestDeleteHandler(t *testing.T) {
	store := newStubStore()
	_, _ = store.Create(context.Background(), "a")
	_, _ = store.Create(context.Background(), "b")
	router := newOrderRouter(store)

	rec := serve(router, http.MethodDelete, "/delete_order?order_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"msg":"Order removed","results":{"rowsAffected":1}}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/delete_order?order_id=2", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodDelete, "/delete_order?order_id=1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreErrorsAreMapped(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"canceled", context.Canceled, http.StatusRequestTimeout},
		{"wrapped not found", errors.Join(errors.New("lookup"), storage.ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStubStore()
			store.err = tt.err
			router := newOrderRouter(store)

			rec := serve(router, http.MethodGet, "/order_list", "")

			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}
