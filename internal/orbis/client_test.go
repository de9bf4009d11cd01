package orbis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExecuteDecodesStructuredResult(t *testing.T) {
	var gotAuth string
	var gotBody request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true,"op":"agenda","items":[{"fecha":"2025-09-10","hora":"10:00","texto":"Reunión"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secreto", zap.NewNop())
	res, err := c.Execute(context.Background(), 42, "/agenda")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secreto", gotAuth)
	assert.Equal(t, request{Command: "/agenda", ChatID: 42, Mode: "json"}, gotBody)
	assert.True(t, res.OK)
	assert.Equal(t, "agenda", res.Op)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Reunión", res.Items[0].Text)
	assert.False(t, res.Legacy())
}

func TestExecuteRetriesOnceThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"op":"agenda","items":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", zap.NewNop())
	res, err := c.Execute(context.Background(), 1, "/agenda")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExecuteGivesUpAfterRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "", zap.NewNop())
	_, err := c.Execute(context.Background(), 1, "/agenda")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "exactly one retry")
}

func TestExecuteRejectsNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, "", zap.NewNop())
	_, err := c.Execute(context.Background(), 1, "/agenda")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestExecuteHandlesLegacyShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"respuesta":"2025-09-10 10:00 → Reunión"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", zap.NewNop())
	res, err := c.Execute(context.Background(), 1, "/agenda")
	require.NoError(t, err)
	assert.True(t, res.Legacy())
	assert.True(t, res.OK)
	assert.Equal(t, "2025-09-10 10:00 → Reunión", res.Respuesta)
}

func TestExecuteLogicalErrorIsNotTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"ok":false,"op":"borrar","error":"not_found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", zap.NewNop())
	res, err := c.Execute(context.Background(), 1, "/borrar 2025-09-10 10:00")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "not_found", res.ErrorCode)
	assert.Equal(t, int32(1), calls.Load(), "logical failures are not retried")
}
