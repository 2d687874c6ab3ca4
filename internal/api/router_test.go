package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"assetmarket/internal/account"
	"assetmarket/internal/catalog"
	"assetmarket/internal/db"
	"assetmarket/internal/domain"
	"assetmarket/internal/moderation"
	"assetmarket/internal/storage"
	"assetmarket/internal/utils"
	"assetmarket/internal/wishlist"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type harness struct {
	router *gin.Engine
	store  *db.MemoryStore
	tokens map[domain.Role]string
	ids    map[domain.Role]uint
}

func setupRouter(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := db.NewMemoryStore()
	h := &harness{
		router: gin.New(),
		store:  store,
		tokens: make(map[domain.Role]string),
		ids:    make(map[domain.Role]uint),
	}
	for _, role := range domain.Roles {
		u := &domain.User{Name: string(role), Email: string(role) + "@example.com", Role: role}
		require.NoError(t, store.CreateUser(context.Background(), u))
		token, err := utils.GenerateJWT(u.ID, testSecret)
		require.NoError(t, err)
		h.tokens[role], h.ids[role] = token, u.ID
	}
	dir := t.TempDir()
	RegisterRoutes(h.router, Deps{
		Accounts:   account.NewService(store).WithCost(bcrypt.MinCost),
		Catalog:    catalog.NewService(store, nil),
		Moderation: moderation.NewService(store, nil, moderation.DefaultPolicy()),
		Wishlist:   wishlist.NewService(store),
		Users:      store,
		Files:      storage.NewLocal(dir, "/uploads"),
		UploadDir:  dir,
		JWTSecret:  testSecret,
	})
	return h
}

// asset stores an asset owned by the seller
func (h *harness) asset(t *testing.T, approved bool) uint {
	t.Helper()
	a := &domain.Asset{
		Title:      "Kit",
		Category:   domain.CategoryUIKits,
		SellerID:   h.ids[domain.RoleSeller],
		FileURL:    "/uploads/kit.zip",
		IsApproved: approved,
	}
	require.NoError(t, h.store.CreateAsset(context.Background(), a))
	return a.ID
}

func (h *harness) do(t *testing.T, method, path string, role domain.Role, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+h.tokens[role])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

func TestAuthFlow(t *testing.T) {
	h := setupRouter(t)

	w := h.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var registered AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, domain.RoleBuyer, registered.User.Role)
	assert.NotContains(t, w.Body.String(), "password")

	w = h.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = h.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndGetAssets(t *testing.T) {
	h := setupRouter(t)
	approved := h.asset(t, true)
	pending := h.asset(t, false)

	w := h.do(t, http.MethodGet, "/assets?limit=5&category=ui-kits", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page catalog.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, approved, page.Items[0].ID)
	assert.Equal(t, "seller", page.Items[0].Seller.Name)
	assert.Equal(t, 1, page.TotalPages)

	w = h.do(t, http.MethodGet, fmt.Sprintf("/assets/%d", pending), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/assets/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Asset not found", errorOf(t, w))

	w = h.do(t, http.MethodGet, "/assets/not-an-id", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodGet, "/assets/featured", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestAuthRequired(t *testing.T) {
	h := setupRouter(t)
	id := h.asset(t, true)

	w := h.do(t, http.MethodPost, fmt.Sprintf("/assets/%d/download", id), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized, no token", errorOf(t, w))

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, token failed", errorOf(t, rec))

	// Token outliving its user
	require.NoError(t, h.store.DeleteUser(context.Background(), h.ids[domain.RoleBuyer]))
	w = h.do(t, http.MethodGet, "/users/profile", domain.RoleBuyer, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDownload(t *testing.T) {
	h := setupRouter(t)
	id := h.asset(t, true)

	for i := 0; i < 2; i++ {
		w := h.do(t, http.MethodPost, fmt.Sprintf("/assets/%d/download", id), domain.RoleBuyer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"downloadUrl":"/uploads/kit.zip"}`, w.Body.String())
	}
	a, err := h.store.FindAsset(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.DownloadCount)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	h := setupRouter(t)
	id := h.asset(t, false)
	paths := []struct{ method, path string }{
		{http.MethodGet, "/admin/users"},
		{http.MethodGet, "/admin/assets"},
		{http.MethodGet, "/admin/stats"},
		{http.MethodPut, fmt.Sprintf("/admin/assets/%d/approve", id)},
		{http.MethodPut, fmt.Sprintf("/admin/assets/%d/feature", id)},
		{http.MethodDelete, fmt.Sprintf("/admin/users/%d", h.ids[domain.RoleBuyer])},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			for _, role := range []domain.Role{domain.RoleBuyer, domain.RoleSeller} {
				w := h.do(t, p.method, p.path, role, nil)
				assert.Equal(t, http.StatusForbidden, w.Code)
				assert.Equal(t, "Admin access required", errorOf(t, w))
			}
		})
	}

	a, err := h.store.FindAsset(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, a.IsApproved)
}

func TestModerationEndpoints(t *testing.T) {
	h := setupRouter(t)
	id := h.asset(t, false)

	w := h.do(t, http.MethodPut, fmt.Sprintf("/admin/assets/%d/feature", id), domain.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodPut, fmt.Sprintf("/admin/assets/%d/approve", id), domain.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Message string       `json:"message"`
		Asset   domain.Asset `json:"asset"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Asset approved", resp.Message)
	assert.True(t, resp.Asset.IsApproved)

	w = h.do(t, http.MethodPut, fmt.Sprintf("/admin/assets/%d/feature", id), domain.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Asset featured", resp.Message)

	w = h.do(t, http.MethodGet, "/assets/featured", "", nil)
	var featured []catalog.AssetSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &featured))
	assert.Len(t, featured, 1)

	w = h.do(t, http.MethodPut, fmt.Sprintf("/admin/assets/%d/reject", id), domain.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Asset.IsApproved)
	assert.False(t, resp.Asset.IsFeatured)

	w = h.do(t, http.MethodPut, "/admin/assets/999/approve", domain.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetRoleEndpoint(t *testing.T) {
	h := setupRouter(t)
	path := fmt.Sprintf("/admin/users/%d/role", h.ids[domain.RoleBuyer])

	w := h.do(t, http.MethodPut, path, domain.RoleAdmin, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid role is required", errorOf(t, w))

	w = h.do(t, http.MethodPut, path, domain.RoleAdmin, map[string]string{"role": "seller"})
	require.Equal(t, http.StatusOK, w.Code)

	// The new role applies to the next request with the same token
	w = h.do(t, http.MethodPost, "/assets", domain.RoleBuyer, nil)
	assert.NotEqual(t, http.StatusForbidden, w.Code)
}

func TestCreateAsset(t *testing.T) {
	h := setupRouter(t)

	w := h.do(t, http.MethodPost, "/assets", domain.RoleBuyer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Seller access required", errorOf(t, w))

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Dashboard Kit",
		"description": "Widgets",
		"category":    "ui-kits",
		"price":       "12.5",
		"tags":        "react, tailwind",
	}, true)
	req := httptest.NewRequest(http.MethodPost, "/assets", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+h.tokens[domain.RoleSeller])
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created domain.Asset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.False(t, created.IsApproved)
	assert.Equal(t, []string{"react", "tailwind"}, []string(created.Tags))
	assert.True(t, strings.HasPrefix(created.FileURL, "/uploads/"))

	// The stored archive is served back
	w = h.do(t, http.MethodGet, created.FileURL, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Missing file
	body, contentType = multipartBody(t, map[string]string{
		"title": "No file", "description": "x", "category": "ui-kits",
	}, false)
	req = httptest.NewRequest(http.MethodPost, "/assets", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+h.tokens[domain.RoleSeller])
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please upload a file", errorOf(t, rec))
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	h := setupRouter(t)
	id := h.asset(t, true)
	other := &domain.User{Name: "Other", Email: "other@example.com", Role: domain.RoleSeller}
	require.NoError(t, h.store.CreateUser(context.Background(), other))
	otherToken, err := utils.GenerateJWT(other.ID, testSecret)
	require.NoError(t, err)

	form := func(title string) (*bytes.Buffer, string) {
		return multipartBody(t, map[string]string{"title": title}, false)
	}

	body, ct := form("Stolen")
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/assets/%d", id), body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body, ct = form("Renamed")
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/assets/%d", id), body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+h.tokens[domain.RoleSeller])
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Asset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "/uploads/kit.zip", updated.FileURL)

	w := h.do(t, http.MethodDelete, fmt.Sprintf("/assets/%d", id), domain.RoleBuyer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = h.do(t, http.MethodDelete, fmt.Sprintf("/assets/%d", id), domain.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Asset removed"}`, w.Body.String())
}

func TestWishlistEndpoints(t *testing.T) {
	h := setupRouter(t)
	id := h.asset(t, true)
	path := fmt.Sprintf("/users/wishlist/%d", id)

	w := h.do(t, http.MethodPost, path, domain.RoleBuyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var item catalog.AssetSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, id, item.ID)

	w = h.do(t, http.MethodPost, path, domain.RoleBuyer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Asset already in wishlist", errorOf(t, w))

	w = h.do(t, http.MethodPost, "/users/wishlist/999", domain.RoleBuyer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodGet, "/users/wishlist", domain.RoleBuyer, nil)
	var items []catalog.AssetSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 1)

	w = h.do(t, http.MethodDelete, path, domain.RoleBuyer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(t, http.MethodDelete, path, domain.RoleBuyer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Asset not in wishlist", errorOf(t, w))
}

func TestUserEndpoints(t *testing.T) {
	h := setupRouter(t)
	h.asset(t, false)

	w := h.do(t, http.MethodPut, "/users/profile", domain.RoleSeller, map[string]string{"bio": "Designer"})
	require.Equal(t, http.StatusOK, w.Code)
	var profile domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Designer", profile.Bio)

	w = h.do(t, http.MethodGet, "/users/assets", domain.RoleSeller, nil)
	var mine []catalog.AssetSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	w = h.do(t, http.MethodGet, "/users/purchases", domain.RoleBuyer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

// multipartBody builds a form with optional archive upload
func multipartBody(t *testing.T, fields map[string]string, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withFile {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="kit.zip"`)
		header.Set("Content-Type", "application/zip")
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("PK\x03\x04 archive"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}
