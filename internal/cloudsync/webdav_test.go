package cloudsync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDavBase(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare host gains scheme and dav", input: "cloud.example.com", want: "https://cloud.example.com/dav"},
		{name: "path truncated at first dav segment", input: "https://cloud.example.com/dav/files/alice/", want: "https://cloud.example.com/dav"},
		{name: "remote.php style kept up to dav", input: "https://nc.example.com/remote.php/dav/files/bob", want: "https://nc.example.com/remote.php/dav"},
		{name: "non-dav path gets dav appended", input: "https://cloud.example.com/webdisk", want: "https://cloud.example.com/webdisk/dav"},
		{name: "http preserved", input: "http://192.168.1.5:8080/dav", want: "http://192.168.1.5:8080/dav"},
		{name: "empty is an error", input: "", wantErr: true},
		{name: "whitespace only is an error", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeDavBase(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildFullPath(t *testing.T) {
	profile := Profile{URL: "https://cloud.example.com/dav", Folder: "voidtab", Filename: "voidtab-backup.json"}

	folderURL, err := buildFullPath(profile, "")
	require.NoError(t, err)
	assert.Equal(t, "https://cloud.example.com/dav/voidtab/", folderURL)

	fileURL, err := buildFullPath(profile, "voidtab-backup.json")
	require.NoError(t, err)
	assert.Equal(t, "https://cloud.example.com/dav/voidtab/voidtab-backup.json", fileURL)

	t.Run("empty folder defaults", func(t *testing.T) {
		p := Profile{URL: "https://cloud.example.com/dav"}
		got, err := buildFullPath(p, "f.json")
		require.NoError(t, err)
		assert.Equal(t, "https://cloud.example.com/dav/voidtab/f.json", got)
	})
}

func TestAuthHeaderUTF8(t *testing.T) {
	h := authHeader(Profile{Username: "alice", Password: "p@ss"})
	assert.Equal(t, "Basic YWxpY2U6cEBzcw==", h)

	// Non-ASCII credentials must not be mangled.
	h = authHeader(Profile{Username: "阿丽", Password: "哈哈"})
	assert.Equal(t, "Basic 6Zi/5Li9OuWTiOWTiA==", h)
}

func davServer(t *testing.T, handler http.HandlerFunc) (*WebDAVProvider, Profile) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	provider := NewWebDAVProvider(NewHTTPTransport(srv.Client()))
	profile := Profile{
		Provider: ProviderWebDAV,
		URL:      srv.URL + "/dav",
		Username: "alice",
		Password: "secret",
	}
	return provider, profile
}

func TestWebDAVTest(t *testing.T) {
	t.Run("propfind multi-status succeeds", func(t *testing.T) {
		var sawMkcol, sawPropfind bool
		provider, profile := davServer(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case "MKCOL":
				sawMkcol = true
				w.WriteHeader(http.StatusMethodNotAllowed) // already exists
			case "PROPFIND":
				sawPropfind = true
				assert.Equal(t, "0", r.Header.Get("Depth"))
				assert.NotEmpty(t, r.Header.Get("Authorization"))
				w.WriteHeader(http.StatusMultiStatus)
			default:
				t.Fatalf("unexpected method %s", r.Method)
			}
		})

		result := provider.Test(context.Background(), profile)
		assert.True(t, result.OK)
		assert.True(t, sawMkcol)
		assert.True(t, sawPropfind)
	})

	t.Run("unauthorized fails with status", func(t *testing.T) {
		provider, profile := davServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		result := provider.Test(context.Background(), profile)
		assert.False(t, result.OK)
		assert.Contains(t, result.Message, "401")
	})

	t.Run("empty url fails without network", func(t *testing.T) {
		provider := NewWebDAVProvider(NewHTTPTransport(nil))
		result := provider.Test(context.Background(), Profile{Provider: ProviderWebDAV})
		assert.False(t, result.OK)
	})
}

func TestWebDAVUpload(t *testing.T) {
	var gotBody string
	var gotPath string
	provider, profile := davServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "MKCOL":
			w.WriteHeader(http.StatusCreated)
		case http.MethodPut:
			gotPath = r.URL.Path
			buf, _ := io.ReadAll(r.Body)
			gotBody = string(buf)
			w.Header().Set("ETag", `"abc123"`)
			w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
			w.WriteHeader(http.StatusCreated)
		}
	})

	result := provider.Upload(context.Background(), profile, `{"version":1}`)
	require.True(t, result.OK)
	assert.Equal(t, "/dav/voidtab/voidtab-backup.json", gotPath)
	assert.Equal(t, `{"version":1}`, gotBody)
	assert.Equal(t, `"abc123"`, result.RemoteEtag)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", result.RemoteMtime)
}

func TestWebDAVDownload(t *testing.T) {
	t.Run("success carries body and signals", func(t *testing.T) {
		provider, profile := davServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			w.Header().Set("ETag", `"v2"`)
			_, _ = w.Write([]byte(`{"version":1,"theme":{}}`))
		})

		result := provider.Download(context.Background(), profile)
		require.True(t, result.OK)
		assert.Equal(t, `{"version":1,"theme":{}}`, result.Data)
		assert.Equal(t, `"v2"`, result.RemoteEtag)
	})

	t.Run("missing backup is a plain failure", func(t *testing.T) {
		provider, profile := davServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		result := provider.Download(context.Background(), profile)
		assert.False(t, result.OK)
		assert.Empty(t, result.Data)
		assert.Contains(t, result.Message, "404")
	})
}

func TestServiceNoneProviderShortCircuits(t *testing.T) {
	svc := NewService(NewRegistry(NewHTTPTransport(nil)))
	profile := Profile{Provider: ProviderNone}

	assert.False(t, svc.Test(context.Background(), profile).OK)
	assert.False(t, svc.Upload(context.Background(), profile, "x").OK)
	assert.False(t, svc.Download(context.Background(), profile).OK)
}

func TestRegistryUnknownProviderPanics(t *testing.T) {
	registry := NewRegistry(NewHTTPTransport(nil))
	assert.Panics(t, func() {
		registry.Provider(ProviderID("dropbox"))
	})
}
