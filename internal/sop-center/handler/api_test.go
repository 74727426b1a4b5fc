package handler_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/clinsop/internal/model"
	"github.com/kart-io/clinsop/internal/sop-center/biz"
	"github.com/kart-io/clinsop/internal/sop-center/handler"
	"github.com/kart-io/clinsop/internal/sop-center/router"
	"github.com/kart-io/clinsop/internal/sop-center/store"
	"github.com/kart-io/clinsop/pkg/component/storage"
	"github.com/kart-io/clinsop/pkg/security/auth/jwt"
	"github.com/kart-io/clinsop/pkg/utils/errors"
	"github.com/kart-io/clinsop/pkg/utils/json"
)

type testEmbedder struct{}

func (testEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2}
	}
	return out, nil
}

func (testEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 2}, nil
}

func (testEmbedder) Name() string { return "test-embedder" }

func newTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.SOPDocument{}, &model.VectorEmbedding{}))

	ds := store.NewStore(db)
	authn, err := jwt.New(
		jwt.WithKey("api-test-signing-key-with-enough-length"),
		jwt.WithStore(jwt.NewMemoryStore()),
	)
	require.NoError(t, err)

	authHandler := handler.NewAuthHandler(biz.NewAuthService(authn, ds))
	sopHandler := handler.NewSOPHandler(biz.NewSOPService(ds, testEmbedder{}, 2))

	return router.New(authn, authHandler, sopHandler, storage.NewManager())
}

func doJSON(engine *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, engine *gin.Engine) string {
	t.Helper()
	w := doJSON(engine, http.MethodPost, "/v1/auth/register",
		`{"email":"joy@clinic.test","password":"correct horse","name":"Nurse Joy"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(engine, http.MethodPost, "/v1/auth/login",
		`{"email":"joy@clinic.test","password":"correct horse"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestRegisterDuplicateEmailReturns400(t *testing.T) {
	engine := newTestAPI(t)

	body := `{"email":"joy@clinic.test","password":"correct horse","name":"Nurse Joy"}`
	w := doJSON(engine, http.MethodPost, "/v1/auth/register", body, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(engine, http.MethodPost, "/v1/auth/register", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email already in use")
}

func TestRegisterInvalidBody(t *testing.T) {
	engine := newTestAPI(t)

	w := doJSON(engine, http.MethodPost, "/v1/auth/register", `{"email":"not-an-email","password":"correct horse","name":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email must be a valid email address")

	w = doJSON(engine, http.MethodPost, "/v1/auth/register", `{"email":"a@b.test","password":"short","name":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginInvalidCredentialsReturns401(t *testing.T) {
	engine := newTestAPI(t)
	registerAndLogin(t, engine)

	w := doJSON(engine, http.MethodPost, "/v1/auth/login",
		`{"email":"joy@clinic.test","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestMeRequiresAuth(t *testing.T) {
	engine := newTestAPI(t)

	w := doJSON(engine, http.MethodGet, "/v1/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeReturnsAccount(t *testing.T) {
	engine := newTestAPI(t)
	token := registerAndLogin(t, engine)

	w := doJSON(engine, http.MethodGet, "/v1/auth/me", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "joy@clinic.test")
	assert.NotContains(t, w.Body.String(), "correct horse")
}

func TestLogoutInvalidatesToken(t *testing.T) {
	engine := newTestAPI(t)
	token := registerAndLogin(t, engine)

	w := doJSON(engine, http.MethodPost, "/v1/auth/logout", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(engine, http.MethodGet, "/v1/auth/me", "", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSOPEndpointsRequireAuth(t *testing.T) {
	engine := newTestAPI(t)

	w := doJSON(engine, http.MethodPost, "/v1/sops", `{"title":"t","section":"1","content":"c"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSOPCreateAndGet(t *testing.T) {
	engine := newTestAPI(t)
	token := registerAndLogin(t, engine)

	w := doJSON(engine, http.MethodPost, "/v1/sops",
		`{"title":"Sterilization Protocol","section":"4.2","department":"surgery","content":"Autoclave at 134C."}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created struct {
		Data model.SOPDocument `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)

	w = doJSON(engine, http.MethodGet, "/v1/sops/"+created.Data.ID, "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sterilization Protocol")
}

func TestSOPGetUnknownReturns404(t *testing.T) {
	engine := newTestAPI(t)
	token := registerAndLogin(t, engine)

	w := doJSON(engine, http.MethodGet, "/v1/sops/does-not-exist", "", token)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrSOPNotFound.Code, resp.Code)
}

func TestUnknownRouteReturns404(t *testing.T) {
	engine := newTestAPI(t)

	w := doJSON(engine, http.MethodGet, "/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
