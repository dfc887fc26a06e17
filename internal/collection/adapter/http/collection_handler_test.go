package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"docbase/internal/auth/domain/repository"
	"docbase/internal/collection/config"
	"docbase/internal/collection/domain/model"
	"docbase/internal/collection/query"
	"docbase/internal/shared/contextkeys"
	apperrors "docbase/internal/shared/errors"
	"docbase/internal/shared/httputil"
	"docbase/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type MockCollectionUsecase struct {
	mock.Mock
}

func (m *MockCollectionUsecase) Create(ctx context.Context, collection string, docs []model.Document, claims *repository.Claims) ([]model.Document, error) {
	args := m.Called(ctx, collection, docs, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockCollectionUsecase) Get(ctx context.Context, collection, id string, exclude []string, populate []query.Populate) (model.Document, error) {
	args := m.Called(ctx, collection, id, exclude, populate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *MockCollectionUsecase) List(ctx context.Context, collection string, opts *query.ListOptions) ([]model.Document, error) {
	args := m.Called(ctx, collection, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockCollectionUsecase) Update(ctx context.Context, collection, id string, set model.Document, unset []string, claims *repository.Claims) (*model.UpdateResult, error) {
	args := m.Called(ctx, collection, id, set, unset, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UpdateResult), args.Error(1)
}

func (m *MockCollectionUsecase) UpdateMany(ctx context.Context, collection string, where bson.M, set model.Document, unset []string, claims *repository.Claims) (*model.UpdateResult, error) {
	args := m.Called(ctx, collection, where, set, unset, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UpdateResult), args.Error(1)
}

func (m *MockCollectionUsecase) Delete(ctx context.Context, collection, id string) error {
	return m.Called(ctx, collection, id).Error(0)
}

func (m *MockCollectionUsecase) DeleteMany(ctx context.Context, collection string, where bson.M) error {
	return m.Called(ctx, collection, where).Error(0)
}

func (m *MockCollectionUsecase) Count(ctx context.Context, collection string, where bson.M) (int64, error) {
	args := m.Called(ctx, collection, where)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCollectionUsecase) Distinct(ctx context.Context, collection, field string, where bson.M) ([]interface{}, error) {
	args := m.Called(ctx, collection, field, where)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interface{}), args.Error(1)
}

func (m *MockCollectionUsecase) Sum(ctx context.Context, collection, field string, where bson.M) (float64, error) {
	args := m.Called(ctx, collection, field, where)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockCollectionUsecase) Random(ctx context.Context, collection string, where bson.M, size int64, exclude []string) ([]model.Document, error) {
	args := m.Called(ctx, collection, where, size, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockCollectionUsecase) Owner(ctx context.Context, collection, id string) (string, error) {
	args := m.Called(ctx, collection, id)
	return args.String(0), args.Error(1)
}

func (m *MockCollectionUsecase) ListCollections(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// withClaims injects decoded claims the way the auth middleware would.
func withClaims(claims *repository.Claims) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims != nil {
			c.Locals(string(contextkeys.ClaimsKey), claims)
		}
		return c.Next()
	}
}

func setupApp(uc *MockCollectionUsecase, restricted []string, claims *repository.Claims) *fiber.App {
	log := logger.NewLogger()
	app := fiber.New(fiber.Config{ErrorHandler: httputil.ErrorHandler(log)})
	app.Use(withClaims(claims))

	cfg := &config.Config{RestrictedTables: restricted}
	handler := NewCollectionHandler(uc, NewGuards(cfg, uc, log))
	handler.RegisterRoutes(app)
	handler.RegisterSuperpowerRoutes(app)
	return app
}

func userClaims(uid string) *repository.Claims {
	role := 0
	return &repository.Claims{UID: uid, Role: &role}
}

func adminClaims(uid string) *repository.Claims {
	role := 1
	return &repository.Claims{UID: uid, Role: &role}
}

func TestReservedCollectionIsRejected(t *testing.T) {
	for _, name := range []string{"users", "cloudFunctions", "files"} {
		uc := new(MockCollectionUsecase)
		app := setupApp(uc, nil, adminClaims("admin"))

		resp, err := app.Test(httptest.NewRequest("GET", "/collection/"+name, nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, name)
		uc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestRestrictedCollectionRejectsRegularUsers(t *testing.T) {
	uc := new(MockCollectionUsecase)
	app := setupApp(uc, []string{"invoices"}, userClaims("u1"))

	req := httptest.NewRequest("POST", "/collection/invoices", strings.NewReader(`{"a":1}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRestrictedCollectionAllowsAdmin(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("Create", mock.Anything, "invoices", mock.Anything, mock.Anything).
		Return([]model.Document{{"a": float64(1)}}, nil)
	app := setupApp(uc, []string{"invoices"}, adminClaims("admin"))

	req := httptest.NewRequest("POST", "/collection/invoices", strings.NewReader(`{"a":1}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestCreateRequiresLogin(t *testing.T) {
	uc := new(MockCollectionUsecase)
	app := setupApp(uc, nil, nil)

	req := httptest.NewRequest("POST", "/collection/widgets", strings.NewReader(`{"name":"a"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "please login first", body["message"])
}

func TestCreateReturnsCreatedDocument(t *testing.T) {
	uc := new(MockCollectionUsecase)
	created := model.Document{"id": "abc", "name": "a", "createdBy": "u1"}
	uc.On("Create", mock.Anything, "widgets", mock.Anything, userClaims("u1")).
		Return([]model.Document{created}, nil)
	app := setupApp(uc, nil, userClaims("u1"))

	req := httptest.NewRequest("POST", "/collection/widgets", strings.NewReader(`{"name":"a"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "abc", body["id"])
	assert.Equal(t, "u1", body["createdBy"])
}

func TestUpdateRejectsNonOwner(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("Owner", mock.Anything, "widgets", "doc1").Return("someone-else", nil)
	app := setupApp(uc, nil, userClaims("u2"))

	req := httptest.NewRequest("PUT", "/collection/widgets/doc1", strings.NewReader(`{"data":{"$set":{"name":"b"}}}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	uc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateMissingDocumentIs404(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("Owner", mock.Anything, "widgets", "ghost").Return("", apperrors.ErrNotFound)
	app := setupApp(uc, nil, userClaims("u1"))

	req := httptest.NewRequest("PUT", "/collection/widgets/ghost", strings.NewReader(`{"data":{"$set":{"name":"b"}}}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateByOwnerSucceeds(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("Owner", mock.Anything, "widgets", "doc1").Return("u1", nil)
	uc.On("Update", mock.Anything, "widgets", "doc1",
		model.Document{"name": "b"}, []string{"old"}, userClaims("u1")).
		Return(&model.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	app := setupApp(uc, nil, userClaims("u1"))

	req := httptest.NewRequest("PUT", "/collection/widgets/doc1",
		strings.NewReader(`{"data":{"$set":{"name":"b"},"$unset":["old"]}}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	uc.AssertExpectations(t)
}

func TestUpdateManyRequiresAdmin(t *testing.T) {
	uc := new(MockCollectionUsecase)
	app := setupApp(uc, nil, userClaims("u1"))

	req := httptest.NewRequest("PUT", "/collection/widgets/updateMany",
		strings.NewReader(`{"where":{"a":1},"data":{"$set":{"b":2}}}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRemoveManyRequiresAdmin(t *testing.T) {
	uc := new(MockCollectionUsecase)
	app := setupApp(uc, nil, userClaims("u1"))

	req := httptest.NewRequest("DELETE", "/collection/widgets", strings.NewReader(`{"where":{}}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRemoveManyWithoutBodyMatchesAll(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("DeleteMany", mock.Anything, "widgets", bson.M{}).Return(nil)
	app := setupApp(uc, nil, adminClaims("admin"))

	req := httptest.NewRequest("DELETE", "/collection/widgets", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	uc.AssertExpectations(t)
}

func TestRemoveByOwnerReturnsNoContent(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("Owner", mock.Anything, "widgets", "doc1").Return("u1", nil)
	uc.On("Delete", mock.Anything, "widgets", "doc1").Return(nil)
	app := setupApp(uc, nil, userClaims("u1"))

	resp, err := app.Test(httptest.NewRequest("DELETE", "/collection/widgets/doc1", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestFindMissingDocumentIs404(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("Get", mock.Anything, "widgets", "ghost", []string(nil), []query.Populate(nil)).
		Return(nil, apperrors.ErrNotFound)
	app := setupApp(uc, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/collection/widgets/ghost", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFindManyIsAnonymous(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("List", mock.Anything, "widgets", mock.MatchedBy(func(opts *query.ListOptions) bool {
		return opts.PageSize == 20 && opts.PageNo == 1 && opts.SortOrder == -1
	})).Return([]model.Document{}, nil)
	app := setupApp(uc, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/collection/widgets", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	uc.AssertExpectations(t)
}

func TestFindManyMalformedWhereIs400(t *testing.T) {
	uc := new(MockCollectionUsecase)
	app := setupApp(uc, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/collection/widgets?where=%7Bnot-json", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "field where is not valid JSON", body["message"])
}

func TestFindDistinctRequiresFieldName(t *testing.T) {
	uc := new(MockCollectionUsecase)
	app := setupApp(uc, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/collection/widgets/findDistinct", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFindDistinctReturnsValues(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("Distinct", mock.Anything, "widgets", "color", bson.M{}).
		Return([]interface{}{"red", "blue"}, nil)
	app := setupApp(uc, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/collection/widgets/findDistinct?distinct=color", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var values []interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&values))
	assert.Equal(t, []interface{}{"red", "blue"}, values)
}

func TestSumRequiresLogin(t *testing.T) {
	uc := new(MockCollectionUsecase)
	app := setupApp(uc, nil, nil)

	req := httptest.NewRequest("POST", "/collection/orders/sum",
		strings.NewReader(`{"field":"amount"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSumReturnsRoundedTotal(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("Sum", mock.Anything, "orders", "amount", bson.M{"status": "paid"}).
		Return(2.01, nil)
	app := setupApp(uc, nil, userClaims("u1"))

	req := httptest.NewRequest("POST", "/collection/orders/sum",
		strings.NewReader(`{"field":"amount","where":{"status":{"$eq":"paid"}}}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var total float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&total))
	assert.Equal(t, 2.01, total)
	uc.AssertExpectations(t)
}

func TestSumWithoutFieldIs400(t *testing.T) {
	uc := new(MockCollectionUsecase)
	app := setupApp(uc, nil, userClaims("u1"))

	req := httptest.NewRequest("POST", "/collection/orders/sum", strings.NewReader(`{"where":{}}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRandomClampsSize(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("Random", mock.Anything, "widgets", bson.M{}, int64(query.MaxPageSize), []string(nil)).
		Return([]model.Document{}, nil)
	app := setupApp(uc, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/collection/widgets/random?size=999999", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	uc.AssertExpectations(t)
}

func TestGetAllCollectionsRequiresAdmin(t *testing.T) {
	uc := new(MockCollectionUsecase)
	app := setupApp(uc, nil, userClaims("u1"))

	resp, err := app.Test(httptest.NewRequest("GET", "/superpower/getAllCollections", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestGetAllCollectionsListsNames(t *testing.T) {
	uc := new(MockCollectionUsecase)
	uc.On("ListCollections", mock.Anything).Return([]string{"widgets", "orders"}, nil)
	app := setupApp(uc, nil, adminClaims("admin"))

	resp, err := app.Test(httptest.NewRequest("GET", "/superpower/getAllCollections", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	assert.Equal(t, []string{"widgets", "orders"}, names)
}
