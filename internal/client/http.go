package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"assetmarket/internal/catalog"
	"assetmarket/internal/domain"

	"github.com/pkg/errors"
)

// Compile-time check that HTTPAPI serves the projection
var _ API = (*HTTPAPI)(nil)

// maxBody bounds how much of a response is read
const maxBody = 8 << 20

// AuthResult is the body returned by register and login
type AuthResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// HTTPAPI talks to the marketplace server over JSON
type HTTPAPI struct {
	session    *Session
	httpClient *http.Client
}

// NewHTTPAPI creates a client bound to session
func NewHTTPAPI(session *Session) *HTTPAPI {
	return &HTTPAPI{
		session:    session,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Register creates a buyer account and signs the session in
func (h *HTTPAPI) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := h.do(ctx, http.MethodPost, "/auth/register", body, &out); err != nil {
		return nil, err
	}
	h.session.SignIn(out.Token, out.User.ID)
	return &out, nil
}

// Login authenticates and signs the session in
func (h *HTTPAPI) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := h.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	h.session.SignIn(out.Token, out.User.ID)
	return &out, nil
}

// ListAssets fetches one catalog page
func (h *HTTPAPI) ListAssets(ctx context.Context, p catalog.ListParams) (*catalog.Page, error) {
	p = p.Normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("sort", string(p.Sort))
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Free != nil {
		q.Set("free", strconv.FormatBool(*p.Free))
	}
	var out catalog.Page
	if err := h.do(ctx, http.MethodGet, "/assets?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Featured fetches the homepage promotions
func (h *HTTPAPI) Featured(ctx context.Context) ([]catalog.AssetSummary, error) {
	var out []catalog.AssetSummary
	if err := h.do(ctx, http.MethodGet, "/assets/featured", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Asset fetches one asset with its seller profile and reviews
func (h *HTTPAPI) Asset(ctx context.Context, id uint) (*catalog.AssetDetail, error) {
	var out catalog.AssetDetail
	if err := h.do(ctx, http.MethodGet, fmt.Sprintf("/assets/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Wishlist fetches the caller's saved assets
func (h *HTTPAPI) Wishlist(ctx context.Context) ([]catalog.AssetSummary, error) {
	var out []catalog.AssetSummary
	if err := h.do(ctx, http.MethodGet, "/users/wishlist", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddToWishlist saves an asset and returns it as stored by the server
func (h *HTTPAPI) AddToWishlist(ctx context.Context, assetID uint) (*catalog.AssetSummary, error) {
	var out catalog.AssetSummary
	if err := h.do(ctx, http.MethodPost, fmt.Sprintf("/users/wishlist/%d", assetID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveFromWishlist drops an asset from the caller's wishlist
func (h *HTTPAPI) RemoveFromWishlist(ctx context.Context, assetID uint) error {
	return h.do(ctx, http.MethodDelete, fmt.Sprintf("/users/wishlist/%d", assetID), nil, nil)
}

// do sends a JSON request and decodes a 2xx body into out. Error bodies are
// turned back into domain errors by status code.
func (h *HTTPAPI) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.session.BaseURL()+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := h.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(raw, out), "decode response")
}

// decodeError maps an {"error": ...} response onto the domain taxonomy
func decodeError(status int, raw []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(status)
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	switch status {
	case http.StatusNotFound:
		return domain.NotFound(msg)
	case http.StatusBadRequest:
		return domain.Validation(msg)
	case http.StatusUnauthorized:
		return domain.Unauthorized(msg)
	case http.StatusForbidden:
		return domain.Forbidden(msg)
	case http.StatusConflict:
		return domain.Conflict(msg)
	}
	return errors.Errorf("server returned %d: %s", status, msg)
}
