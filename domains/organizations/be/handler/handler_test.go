package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/northbeam-labs/harbor-saas/domains/organizations/be/repo"
	"github.com/northbeam-labs/harbor-saas/domains/organizations/be/service"
	"github.com/northbeam-labs/harbor-saas/platform/go/logging"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc := service.New(repo.NewMemoryRepository())
	h := New(svc, zaptest.NewLogger(t))

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })

	var payload map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	return res, payload
}

func TestCreateOrganization(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	res, payload := doJSON(t, http.MethodPost, srv.URL+"/", `{"name":"Acme Inc!"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Equal(t, "acme-inc", payload["slug"])
	require.Equal(t, "Acme Inc!", payload["name"])
	require.Contains(t, res.Header.Get("Location"), payload["id"])

	trialEnd, err := time.Parse(time.RFC3339, payload["trialEnd"].(string))
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().UTC().Add(service.DefaultTrialPeriod), trialEnd, 5*time.Second)
}

func TestCreateOrganizationExplicitNullTrial(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	res, payload := doJSON(t, http.MethodPost, srv.URL+"/", `{"name":"Foo","trialEnd":null}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Nil(t, payload["trialEnd"])
}

func TestCreateOrganizationExplicitTrialPreserved(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	res, payload := doJSON(t, http.MethodPost, srv.URL+"/", `{"name":"Foo","trialEnd":"2026-09-15T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Equal(t, "2026-09-15T00:00:00Z", payload["trialEnd"])
}

func TestCreateOrganizationRequiresName(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	res, _ := doJSON(t, http.MethodPost, srv.URL+"/", `{}`)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCreateDuplicateNameGetsSuffixedSlug(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	res, first := doJSON(t, http.MethodPost, srv.URL+"/", `{"name":"Acme"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Equal(t, "acme", first["slug"])

	res, second := doJSON(t, http.MethodPost, srv.URL+"/", `{"name":"Acme"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Regexp(t, `^acme-[a-z0-9]{6}$`, second["slug"])
}

func TestUpdateWithoutSlugLeavesSlugUntouched(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/", `{"name":"Acme"}`)

	res, updated := doJSON(t, http.MethodPatch, srv.URL+"/"+created["id"].(string), `{"name":"Acme Holdings"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "acme", updated["slug"])
	require.Equal(t, "Acme Holdings", updated["name"])
}

func TestUpdateNormalizesSuppliedSlug(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/", `{"name":"Acme"}`)

	res, updated := doJSON(t, http.MethodPatch, srv.URL+"/"+created["id"].(string), `{"slug":"Acme Widgets!"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "acme-widgets", updated["slug"])
}

func TestGetBySlug(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/", `{"name":"Acme"}`)

	res, found := doJSON(t, http.MethodGet, srv.URL+"/by-slug/acme", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, created["id"], found["id"])

	res, _ = doJSON(t, http.MethodGet, srv.URL+"/by-slug/missing", "")
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestGetUnknownIDReturnsNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/00000000-0000-0000-0000-000000000001", "")
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

// brokenRepo fails every operation so handlers hit the internal-error path.
type brokenRepo struct {
	err error
}

func (r brokenRepo) Create(context.Context, service.Organization) (service.Organization, error) {
	return service.Organization{}, r.err
}

func (r brokenRepo) Update(context.Context, uuid.UUID, service.UpdateInput) (service.Organization, error) {
	return service.Organization{}, r.err
}

func (r brokenRepo) Get(context.Context, uuid.UUID) (service.Organization, error) {
	return service.Organization{}, r.err
}

func (r brokenRepo) FindBySlug(context.Context, string, uuid.NullUUID) (service.Organization, error) {
	return service.Organization{}, r.err
}

func (r brokenRepo) List(context.Context, service.ListOptions) (service.ListResult, error) {
	return service.ListResult{}, r.err
}

func TestErrorLogsUseRequestScopedLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	requestLogger := zap.New(core).With(zap.String("request_id", "req-123"))

	svc := service.New(brokenRepo{err: errors.New("pool exhausted")})
	h := New(svc, zaptest.NewLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logging.WithLogger(req.Context(), requestLogger))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.FilterMessage("organizations request failed").All()
	require.Len(t, entries, 1)
	require.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
}

func TestListOrganizations(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		res, _ := doJSON(t, http.MethodPost, srv.URL+"/", `{"name":"`+name+`"}`)
		require.Equal(t, http.StatusCreated, res.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/?page=1&pageSize=2", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()

	var payload struct {
		Items      []map[string]any `json:"items"`
		TotalItems int              `json:"totalItems"`
		TotalPages int              `json:"totalPages"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, payload.Items, 2)
	require.Equal(t, 3, payload.TotalItems)
	require.Equal(t, 2, payload.TotalPages)
}
