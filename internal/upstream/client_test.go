package upstream_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/plmware/forecast-api/internal/config"
	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/session"
	"github.com/plmware/forecast-api/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *upstream.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := upstream.NewClient(&config.UpstreamConfig{
		BaseURL:        server.URL,
		RequestTimeout: 5,
		MaxRetries:     2,
		RetryBackoff:   1,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func authedCtx() context.Context {
	return session.WithUserContext(context.Background(), &session.UserContext{
		UserID: uuid.New(),
		Role:   domain.RoleProjectManager,
		Token:  "caller-token",
	})
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := upstream.NewClient(&config.UpstreamConfig{}, zap.NewNop())
	assert.Error(t, err)

	_, err = upstream.NewClient(nil, zap.NewNop())
	assert.Error(t, err)
}

func TestClientForwardsBearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]domain.Record{})
	}))

	_, err := client.UserProjects(authedCtx(), 2025)
	require.NoError(t, err)
	assert.Equal(t, "Bearer caller-token", gotAuth)
}

func TestClientOmitsAuthWithoutSession(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]domain.Record{})
	}))

	_, err := client.UserProjects(context.Background(), 2025)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClientErrorExtraction(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "detail field wins",
			status:      http.StatusBadRequest,
			body:        `{"detail":"invalid year","message":"ignored"}`,
			wantMessage: "invalid year",
		},
		{
			name:        "message field as fallback",
			status:      http.StatusBadRequest,
			body:        `{"message":"bad input"}`,
			wantMessage: "bad input",
		},
		{
			name:        "raw body as last resort",
			status:      http.StatusInternalServerError,
			body:        "something broke",
			wantMessage: "something broke",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))

			_, err := client.UserProjects(authedCtx(), 2025)
			require.Error(t, err)

			var ue *upstream.Error
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tc.status, ue.StatusCode)
			assert.Equal(t, tc.wantMessage, ue.Message)
		})
	}
}

func TestClientRetriesTransientGetFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode([]domain.Record{{ID: "p1"}})
	}))

	records, err := client.UserProjects(authedCtx(), 2025)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	_, err := client.UserProjects(authedCtx(), 2025)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientDoesNotRetryMutations(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := client.UpdateEditedForecast(authedCtx(), "p1", 2025, domain.RecordEdit{}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientLogin(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "frieda", body["username"])

		json.NewEncoder(w).Encode(map[string]string{"access_token": "issued-token", "token_type": "bearer"})
	}))

	token, err := client.Login(context.Background(), "frieda", "secret")
	require.NoError(t, err)
	assert.Equal(t, "issued-token", token)
}

func TestClientCheckOPForecast(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/check-op-forecast", r.URL.Path)
		assert.Equal(t, "OP123456", r.URL.Query().Get("op_id"))
		assert.Equal(t, "2025", r.URL.Query().Get("year"))
		assert.Equal(t, "OB", r.URL.Query().Get("forecast_type"))

		json.NewEncoder(w).Encode(domain.CheckOPForecastResult{Exists: true})
	}))

	result, err := client.CheckOPForecast(authedCtx(), "OP123456", 2025, domain.ForecastTypeOB)
	require.NoError(t, err)
	assert.True(t, result.Exists)
}

func TestClientImportActuals(t *testing.T) {
	workbook := []byte("PK\x03\x04 fake workbook bytes")

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/projects/import-actuals", r.URL.Path)

		// The boundary in the header must match the body that arrives
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "actuals.xlsx", header.Filename)
		got, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, workbook, got)

		json.NewEncoder(w).Encode(domain.ImportResult{Rows: 3})
	}))

	result, err := client.ImportActuals(authedCtx(), "actuals.xlsx", workbook)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
}

func TestClientErrorHelpers(t *testing.T) {
	notFound := &upstream.Error{StatusCode: http.StatusNotFound}
	unauthorized := &upstream.Error{StatusCode: http.StatusUnauthorized}

	assert.True(t, upstream.IsNotFound(notFound))
	assert.False(t, upstream.IsNotFound(unauthorized))
	assert.True(t, upstream.IsUnauthorized(unauthorized))
	assert.False(t, upstream.IsUnauthorized(nil))
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy backend", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))

		status := client.HealthCheck(context.Background())
		assert.Equal(t, "healthy", status.Status)
		assert.Empty(t, status.Error)
	})

	t.Run("failing backend", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		status := client.HealthCheck(context.Background())
		assert.Equal(t, "unhealthy", status.Status)
		assert.NotEmpty(t, status.Error)
	})
}
