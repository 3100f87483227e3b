package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authHeader = "x-auth-token"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type testApp struct {
	app  *fiber.App
	auth *services.AuthService
	fs   afero.Fs
}

// setupApp builds the full app on an in-memory SQLite database and filesystem.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		},
		Auth: config.AuthConfig{
			JWTSecret: "test_jwt_secret",
			Header:    authHeader,
			TokenTTL:  time.Hour,
		},
		Upload: config.UploadConfig{
			Dir:              "uploads",
			MaxBytes:         1 << 20,
			KeepOriginalName: true,
		},
	}

	db, err := database.Open(cfg.Database)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	app, auth := server.NewApp(cfg, db, fs, nil)
	return &testApp{app: app, auth: auth, fs: fs}
}

func TestMain(m *testing.M) {
	logger.SetLevel("disabled")
	os.Exit(m.Run())
}

func (a *testApp) token(t *testing.T, seller, admin bool) string {
	t.Helper()
	tok, err := a.auth.GenerateToken(&models.User{ID: uuid.NewString(), Username: "tester", IsSeller: seller, IsAdmin: admin})
	require.NoError(t, err)
	return tok
}

func (a *testApp) do(t *testing.T, req *http.Request, token string) *http.Response {
	t.Helper()
	if token != "" {
		req.Header.Set(authHeader, token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testApp) storedFiles(t *testing.T) []string {
	t.Helper()
	var files []string
	if ok, _ := afero.DirExists(a.fs, "uploads"); !ok {
		return nil
	}
	require.NoError(t, afero.Walk(a.fs, "uploads", func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			files = append(files, p)
		}
		return err
	}))
	return files
}

type filePart struct {
	name        string
	contentType string
	content     []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="productImage"; filename="%s"`, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  []apperr.FieldError `json:"errors"`
}

func tvFields(category string) map[string]string {
	return map[string]string{
		"name":          "TV",
		"description":   "A large flat television",
		"category":      category,
		"price":         "299",
		"numberInStock": "5",
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	a := setupApp(t)

	register := map[string]any{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
		"isSeller": true,
	}
	resp := a.do(t, jsonRequest(t, http.MethodPost, "/api/auth/register", register), "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	registerResp := decode[map[string]any](t, resp)
	assert.Equal(t, "User registered successfully", registerResp["message"])
	assert.NotContains(t, registerResp["user"], "password")

	resp = a.do(t, jsonRequest(t, http.MethodPost, "/api/auth/register", register), "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = a.do(t, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{"username": "x"}), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	login := map[string]string{"username": "testuser", "password": "password123"}
	resp = a.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", login), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loginResp := decode[map[string]string](t, resp)
	require.NotEmpty(t, loginResp["token"])

	claims, err := a.auth.VerifyCredential(loginResp["token"])
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Username)
	assert.True(t, claims.HasRole(models.RoleSeller))
	assert.False(t, claims.HasRole(models.RoleAdmin))

	login["password"] = "wrong"
	resp = a.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", login), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateProduct_WithoutCredential(t *testing.T) {
	a := setupApp(t)

	req := multipartRequest(t, "/api/product/create", tvFields("c1"), filePart{"tv.png", "image/png", pngBytes})
	resp := a.do(t, req, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, a.storedFiles(t))

	resp = a.do(t, httptest.NewRequest(http.MethodGet, "/api/product", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]models.Product](t, resp))
}

func TestCreateProduct_RequiresSeller(t *testing.T) {
	a := setupApp(t)

	req := multipartRequest(t, "/api/product/create", tvFields("c1"), filePart{"tv.png", "image/png", pngBytes})
	resp := a.do(t, req, a.token(t, false, true))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, a.storedFiles(t))
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	a := setupApp(t)
	fields := tvFields("c1")
	fields["name"] = "A"

	resp := a.do(t, multipartRequest(t, "/api/product/create", fields), a.token(t, true, false))
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decode[errorBody](t, resp)
	assert.Equal(t, []apperr.FieldError{
		{Field: "name", Message: "Must be at least 2 letters"},
		{Field: "productImage", Message: "Product image is required"},
	}, body.Errors)
	assert.Empty(t, a.storedFiles(t))
}

func TestCreateProduct_RejectsFileType(t *testing.T) {
	a := setupApp(t)

	req := multipartRequest(t, "/api/product/create", tvFields("c1"), filePart{"tv.gif", "image/gif", []byte("GIF89a")})
	resp := a.do(t, req, a.token(t, true, false))
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decode[errorBody](t, resp)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "productImage", body.Errors[0].Field)
	assert.Empty(t, a.storedFiles(t))
}

func TestCreateProduct_RejectsSecondFile(t *testing.T) {
	a := setupApp(t)

	req := multipartRequest(t, "/api/product/create", tvFields("c1"),
		filePart{"a.png", "image/png", pngBytes},
		filePart{"b.png", "image/png", pngBytes},
	)
	resp := a.do(t, req, a.token(t, true, false))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, a.storedFiles(t))
}

func TestProductLifecycle(t *testing.T) {
	a := setupApp(t)
	seller := a.token(t, true, false)
	admin := a.token(t, false, true)

	// Category
	resp := a.do(t, jsonRequest(t, http.MethodPost, "/api/category/create", map[string]string{"name": "Electronics"}), admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	category := decode[models.Category](t, resp)
	require.NotEmpty(t, category.ID)

	// Create
	req := multipartRequest(t, "/api/product/create", tvFields(category.ID), filePart{"tv.png", "image/png", pngBytes})
	resp = a.do(t, req, seller)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location := resp.Header.Get(fiber.HeaderLocation)
	require.True(t, strings.HasPrefix(location, "/api/product/"))
	id := strings.TrimPrefix(location, "/api/product/")

	// Detail
	resp = a.do(t, httptest.NewRequest(http.MethodGet, location, nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	product := decode[models.Product](t, resp)
	assert.Equal(t, id, product.ID)
	assert.Equal(t, "TV", product.Name)
	assert.Equal(t, "uploads/tv.png", product.ProductImage)
	assert.Equal(t, location, product.URL)
	require.NotNil(t, product.Category)
	assert.Equal(t, "Electronics", product.Category.Name)
	assert.Equal(t, []string{"uploads/tv.png"}, a.storedFiles(t))

	// List
	resp = a.do(t, httptest.NewRequest(http.MethodGet, "/api/product", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Product](t, resp), 1)

	// Update without a file keeps the image
	fields := tvFields(category.ID)
	fields["name"] = "OLED TV"
	fields["version"] = "1"
	resp = a.do(t, multipartRequest(t, "/api/product/"+id+"/update", fields), seller)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get(fiber.HeaderLocation))

	resp = a.do(t, httptest.NewRequest(http.MethodGet, location, nil), "")
	product = decode[models.Product](t, resp)
	assert.Equal(t, "OLED TV", product.Name)
	assert.Equal(t, "uploads/tv.png", product.ProductImage)
	assert.Equal(t, 2, product.Version)

	// Stale version
	fields["name"] = "Stale"
	resp = a.do(t, multipartRequest(t, "/api/product/"+id+"/update", fields), seller)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Update with a new file replaces the image
	delete(fields, "version")
	fields["name"] = "OLED TV"
	resp = a.do(t, multipartRequest(t, "/api/product/"+id+"/update", fields, filePart{"new.png", "image/png", pngBytes}), seller)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = a.do(t, httptest.NewRequest(http.MethodGet, location, nil), "")
	product = decode[models.Product](t, resp)
	assert.Equal(t, "uploads/new.png", product.ProductImage)
	assert.Equal(t, 3, product.Version)

	// Delete
	resp = a.do(t, httptest.NewRequest(http.MethodDelete, location+"/delete", nil), seller)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(t, httptest.NewRequest(http.MethodDelete, location+"/delete", nil), admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("item %s was deleted", id), decode[map[string]string](t, resp)["message"])

	resp = a.do(t, httptest.NewRequest(http.MethodGet, location, nil), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decode[errorBody](t, resp).Message)
}

func TestUpdateAndDelete_UnknownProduct(t *testing.T) {
	a := setupApp(t)
	both := a.token(t, true, true)

	resp := a.do(t, multipartRequest(t, "/api/product/missing/update", tvFields("c1")), both)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.do(t, httptest.NewRequest(http.MethodDelete, "/api/product/missing/delete", nil), both)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.Contains(t, body.Error, "not found")
}

func TestHealthAndMetrics(t *testing.T) {
	a := setupApp(t)

	resp := a.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", decode[map[string]string](t, resp)["status"])

	resp = a.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "storefront_http_requests_total")
}
