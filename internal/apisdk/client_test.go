package apisdk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-seniorcare/httpx"
	"github.com/diewo77/go-seniorcare/internal/models"
)

func strPtr(s string) *string { return &s }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second, WithToken("tkn"))
}

func TestGetSeniorUserByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/senior-users/s1", r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id":"s1","progress":"ok","user_id":"","health_plan_id":null}`)
	})

	su, err := c.GetSeniorUserByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", su.ID)
	assert.Equal(t, "ok", *su.Progress)
	require.NotNil(t, su.UserID)
	assert.Equal(t, "", *su.UserID)
	assert.Nil(t, su.HealthPlanID)
}

func TestGetSeniorUserByID_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	})

	_, err := c.GetSeniorUserByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "missing")
}

func TestUpdateSeniorUserByID_SendsNulls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "progress")
		assert.Nil(t, body["progress"])
		assert.Equal(t, "", body["user_id"])
		assert.Equal(t, "hp1", body["health_plan_id"])

		httpx.JSON(w, http.StatusOK, models.SeniorUser{
			Base:         models.Base{ID: "s1"},
			UserID:       strPtr(""),
			HealthPlanID: strPtr("hp1"),
		})
	})

	su, err := c.UpdateSeniorUserByID(context.Background(), "s1", SeniorUserPatch{
		UserID:       strPtr(""),
		HealthPlanID: strPtr("hp1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hp1", *su.HealthPlanID)
}

func TestUpdateSeniorUserByID_ValidationDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"user_id": "not_found"})
	})

	_, err := c.UpdateSeniorUserByID(context.Background(), "s1", SeniorUserPatch{UserID: strPtr("nope")})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "validation_failed", apiErr.Message)
	assert.Equal(t, "not_found", apiErr.Details["user_id"])
}

func TestGetUsers_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "jea", r.URL.Query().Get("q"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("offset"))
		httpx.JSON(w, http.StatusOK, httpx.Page[models.User]{
			Items: []models.User{{Base: models.Base{ID: "u1"}, Email: "jeanne@example.com"}},
			Total: 1,
		})
	})

	page, err := c.GetUsers(context.Background(), ListParams{Query: "jea", Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "jeanne@example.com", page.Items[0].Email)
}

func TestPlainTextError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := c.GetHealthPlans(context.Background(), ListParams{})
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Contains(t, err.Error(), "upstream down")
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.GetUserProfile(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, 0, StatusOf(err))
}

func TestAuthenticate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, models.User{Base: models.Base{ID: "u1"}, Email: body["email"]})
	})

	u, err := c.Authenticate(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = c.Authenticate(context.Background(), "a@b.c", "wrong")
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}
