package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/internal/model"
	"docportal/internal/session"
)

type fakeAPI struct {
	uploads atomic.Int32
	deletes atomic.Int32
	updates atomic.Pointer[map[string]any]
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	ok := func(w http.ResponseWriter, status int, data any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(model.OK(data, "")))
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-alice" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(model.ApiResponse[any]{Message: "missing or invalid token", ErrorCode: "UNAUTHORIZED"})
				return
			}
			next(w, r)
		}
	}
	now := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	doc := model.Document{ID: 1, Title: "Handbook", Status: model.StatusDraft, OwnerUsername: "alice", CreatedAt: now, UpdatedAt: now}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Username != "alice" || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(model.ApiResponse[any]{Message: "invalid username or password"})
			return
		}
		ok(w, http.StatusOK, model.Session{Token: "tok-alice", Type: "Bearer", Username: "alice", Email: "alice@example.com", Role: model.RoleUser})
	})
	mux.HandleFunc("GET /api/documents", authed(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUBLISHED", r.URL.Query().Get("status"))
		ok(w, http.StatusOK, model.NewPageResponse([]model.Document{doc}, 0, 10, 1))
	}))
	mux.HandleFunc("GET /api/documents/1", authed(func(w http.ResponseWriter, r *http.Request) {
		d := doc
		if n := f.uploads.Load(); n > 0 {
			v := int(n)
			d.CurrentVersion = &v
		}
		ok(w, http.StatusOK, d)
	}))
	mux.HandleFunc("GET /api/documents/1/versions", authed(func(w http.ResponseWriter, r *http.Request) {
		items := []model.DocumentVersion{}
		for i := int32(1); i <= f.uploads.Load(); i++ {
			items = append(items, model.DocumentVersion{ID: int64(10 + i), VersionNumber: int(i), FileName: "notes.txt", FileSize: 1536, UploadedAt: now})
		}
		ok(w, http.StatusOK, items)
	}))
	mux.HandleFunc("POST /api/documents/1/versions", authed(func(w http.ResponseWriter, r *http.Request) {
		file, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		n := f.uploads.Add(1)
		ok(w, http.StatusCreated, model.DocumentVersion{ID: int64(10 + n), VersionNumber: int(n), FileName: fh.Filename})
	}))
	mux.HandleFunc("GET /api/files/11", authed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="notes.txt"`)
		_, _ = io.WriteString(w, "payload")
	}))
	mux.HandleFunc("PUT /api/documents/1", authed(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.updates.Store(&req)
		ok(w, http.StatusOK, doc)
	}))
	mux.HandleFunc("DELETE /api/documents/1", func(w http.ResponseWriter, r *http.Request) {
		f.deletes.Add(1)
	})
	return mux
}

type cli struct {
	t    *testing.T
	home string
	url  string
}

func newCLI(t *testing.T) (*cli, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	return &cli{t: t, home: t.TempDir(), url: srv.URL + "/api"}, api
}

func (c *cli) run(stdin string, args ...string) (string, string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetArgs(append(args, "--home", c.home, "--api-url", c.url))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCLI_SessionLifecycle(t *testing.T) {
	c, _ := newCLI(t)

	_, stderr, err := c.run("", "whoami")
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	assert.Contains(t, stderr, "ged login")
	assert.Equal(t, "not signed in", describe(err))

	_, _, err = c.run("", "login", "-u", "alice", "-p", "wrong")
	require.Error(t, err)
	assert.Contains(t, describe(err), "invalid username or password")

	out, _, err := c.run("secret\n", "login", "-u", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as alice (USER)")

	b, err := os.ReadFile(filepath.Join(c.home, "storage.json"))
	require.NoError(t, err)
	assert.Contains(t, string(b), session.KeyToken)
	assert.Contains(t, string(b), session.KeyUser)

	out, _, err = c.run("", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "alice <alice@example.com> USER\n", out)

	out, _, err = c.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, _, err = c.run("", "whoami")
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestCLI_DocumentsAndVersions(t *testing.T) {
	c, api := newCLI(t)
	_, _, err := c.run("", "login", "-u", "alice", "-p", "secret")
	require.NoError(t, err)

	out, _, err := c.run("", "docs", "list", "--status", "published")
	require.NoError(t, err)
	assert.Contains(t, out, "Handbook")
	assert.Contains(t, out, "Page 1 of 1 (1 documents)")

	_, _, err = c.run("", "docs", "list", "--status", "nope")
	assert.Error(t, err)

	out, _, err = c.run("", "docs", "get", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 Handbook [DRAFT]")
	assert.Contains(t, out, "No versions uploaded")

	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o600))
	out, _, err = c.run("", "versions", "upload", "1", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded notes.txt as version 1")
	assert.Contains(t, out, "1.5 KB")
	assert.Equal(t, int32(1), api.uploads.Load())

	dl := t.TempDir()
	out, _, err = c.run("", "versions", "download", "1", "1", "--dir", dl)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dl, "notes.txt"))
	b, err := os.ReadFile(filepath.Join(dl, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))

	_, _, err = c.run("", "versions", "download", "1", "7", "--dir", dl)
	assert.Error(t, err)

	out, _, err = c.run("", "docs", "update", "1", "--tags", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated document #1")
	require.NotNil(t, api.updates.Load())
	assert.Equal(t, map[string]any{"tags": []any{}}, *api.updates.Load())

	_, _, err = c.run("", "docs", "delete", "1")
	assert.EqualError(t, err, "only administrators can delete documents")
	assert.Zero(t, api.deletes.Load())

	_, _, err = c.run("", "docs", "get", "abc")
	assert.Error(t, err)
}

func TestCLI_Language(t *testing.T) {
	c, _ := newCLI(t)

	out, _, err := c.run("", "lang")
	require.NoError(t, err)
	assert.Contains(t, out, "* 🇧🇷 pt-BR Português")

	out, _, err = c.run("", "lang", "set", "es-es")
	require.NoError(t, err)
	assert.Contains(t, out, "Español")

	out, _, err = c.run("", "lang")
	require.NoError(t, err)
	assert.Contains(t, out, "* 🇪🇸 es-ES Español")

	_, _, err = c.run("", "lang", "set", "klingon")
	assert.Error(t, err)
}
