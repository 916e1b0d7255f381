package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esp-users-audit/internal/esptest"
	"esp-users-audit/pkg/config"
)

func newTestConfig(host string) *config.Config {
	return &config.Config{
		AccessKeyID:     esptest.DefaultAccessKeyID,
		SecretAccessKey: esptest.DefaultSecretAccessKey,
		Host:            host,
		HTTP:            config.HTTPConfig{Timeout: 5 * time.Second},
	}
}

func TestNew(t *testing.T) {
	cfg := newTestConfig("http://localhost")
	client := New(cfg)

	require.NotNil(t, client)
	assert.Equal(t, cfg, client.config)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.Equal(t, cfg.AccessKeyID, client.signer.AccessKeyID)
	assert.Equal(t, cfg.SecretAccessKey, client.signer.SecretAccessKey)
}

func TestClient_ListUsers(t *testing.T) {
	server := esptest.NewServer()
	defer server.Close()

	updated := time.Date(2017, 6, 15, 17, 45, 25, 0, time.UTC)
	server.SetUsers(
		esptest.User{
			ID: "10", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			MFAEnabled: true, UpdatedAt: updated, Role: "manager", Organization: "Evident",
			SubOrganizations: []string{"Engineering"}, Teams: []string{"Blue", "Red"},
		},
		esptest.User{
			ID: "11", FirstName: "Alan", LastName: "Turing", Email: "alan@example.com",
			UpdatedAt: updated.Add(time.Hour), Role: "customer", Organization: "Evident",
		},
	)

	client := New(newTestConfig(server.URL))
	users, err := client.ListUsers(context.Background(), UserIncludes...)
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "role,organization,sub_organizations,teams", server.LastInclude())

	ada := users[0]
	assert.Equal(t, "10", ada.ID)
	assert.Equal(t, "Ada", ada.FirstName)
	assert.Equal(t, "Lovelace", ada.LastName)
	assert.Equal(t, "ada@example.com", ada.Email)
	assert.True(t, ada.MFAEnabled)
	assert.True(t, updated.Equal(ada.UpdatedAt))
	require.NotNil(t, ada.Role)
	assert.Equal(t, "manager", ada.Role.Name)
	require.NotNil(t, ada.Organization)
	assert.Equal(t, "Evident", ada.Organization.Name)
	require.Len(t, ada.SubOrganizations, 1)
	assert.Equal(t, "Engineering", ada.SubOrganizations[0].Name)
	require.Len(t, ada.Teams, 2)
	assert.Equal(t, "Blue", ada.Teams[0].Name)
	assert.Equal(t, "Red", ada.Teams[1].Name)

	alan := users[1]
	assert.Equal(t, "Alan", alan.FirstName)
	assert.False(t, alan.MFAEnabled)
	assert.Equal(t, "customer", alan.Role.Name)
	assert.Equal(t, ada.Organization.ID, alan.Organization.ID, "shared organization should resolve to one included resource")
	assert.Empty(t, alan.Teams)
}

func TestClient_ListUsers_Empty(t *testing.T) {
	server := esptest.NewServer()
	defer server.Close()

	client := New(newTestConfig(server.URL))
	users, err := client.ListUsers(context.Background(), UserIncludes...)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestClient_ListUsers_Unauthorized(t *testing.T) {
	server := esptest.NewServer()
	defer server.Close()

	cfg := newTestConfig(server.URL)
	cfg.SecretAccessKey = "wrong-secret"

	_, err := New(cfg).ListUsers(context.Background(), UserIncludes...)
	require.Error(t, err)
	assert.True(t, IsUnauthorizedError(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "list users", apiErr.Operation)
	assert.Contains(t, apiErr.Error(), "not authorized")
}

func TestClient_ListUsers_ServerError(t *testing.T) {
	server := esptest.NewServer()
	defer server.Close()
	server.FailWith(http.StatusInternalServerError, "database unavailable")

	_, err := New(newTestConfig(server.URL)).ListUsers(context.Background(), UserIncludes...)
	require.Error(t, err)
	assert.False(t, IsUnauthorizedError(err))
	assert.Equal(t, "list users failed: HTTP 500: Internal Server Error: database unavailable", err.Error())
}

func TestClient_ListUsers_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(newTestConfig(server.URL)).ListUsers(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, []string{"bad gateway"}, apiErr.Details)
}

func TestClient_ListUsers_MissingCredentials(t *testing.T) {
	server := esptest.NewServer()
	defer server.Close()

	cfg := newTestConfig(server.URL)
	cfg.AccessKeyID = ""

	_, err := New(cfg).ListUsers(context.Background(), UserIncludes...)
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
	assert.Equal(t, 0, server.Requests(), "no request should be sent without credentials")
}

func TestClient_ListUsers_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		w.Write([]byte(`{"data": [`))
	}))
	defer server.Close()

	_, err := New(newTestConfig(server.URL)).ListUsers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestClient_ListUsers_RequestHeaders(t *testing.T) {
	var got *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", ContentType)
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := New(newTestConfig(server.URL))
	client.now = func() time.Time { return time.Date(2017, 6, 15, 17, 45, 25, 0, time.UTC) }

	_, err := client.ListUsers(context.Background(), IncludeRole, IncludeOrganization)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "/api/v2/users?include=role,organization", got.URL.RequestURI())
	assert.Equal(t, ContentType, got.Header.Get("Accept"))
	assert.Equal(t, ContentType, got.Header.Get("Content-Type"))
	assert.Equal(t, "Thu, 15 Jun 2017 17:45:25 GMT", got.Header.Get("Date"))
	assert.Equal(t, "1B2M2Y8AsgTpgAmY7PhCfg==", got.Header.Get("Content-MD5"))
	assert.True(t, strings.HasPrefix(got.Header.Get("Authorization"), "APIAuth "+esptest.DefaultAccessKeyID+":"))
}

func TestClient_ListUsers_ContextCanceled(t *testing.T) {
	server := esptest.NewServer()
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newTestConfig(server.URL)).ListUsers(ctx, UserIncludes...)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
