package cloudsync

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultDavFolder   = "voidtab"
	defaultDavFilename = "voidtab-backup.json"
)

const propfindBody = `<?xml version="1.0" encoding="utf-8" ?>
<d:propfind xmlns:d="DAV:">
  <d:prop><d:resourcetype/></d:prop>
</d:propfind>`

// WebDAVProvider speaks plain WebDAV over the transport port: MKCOL for
// the working folder, PROPFIND for the connection test, GET/PUT for the
// backup document.
type WebDAVProvider struct {
	transport Transport
}

// NewWebDAVProvider creates a provider over the given transport.
func NewWebDAVProvider(transport Transport) *WebDAVProvider {
	return &WebDAVProvider{transport: transport}
}

// normalizeDavBase canonicalizes a user-entered base URL down to the
// collection root: scheme defaulted to https, the path truncated at its
// first "/dav" segment (appended when absent), trailing slashes stripped.
func normalizeDavBase(inputURL string) (string, error) {
	raw := strings.TrimSpace(inputURL)
	if raw == "" {
		return "", fmt.Errorf("WebDAV URL is empty")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid WebDAV URL: %w", err)
	}

	p := strings.TrimRight(parsed.Path, "/")
	if idx := strings.Index(strings.ToLower(p), "/dav"); idx >= 0 {
		p = p[:idx+len("/dav")]
	} else if p != "" {
		p += "/dav"
	} else {
		p = "/dav"
	}

	return strings.TrimRight(parsed.Scheme+"://"+parsed.Host+p, "/"), nil
}

// buildFullPath resolves the working folder URL (filename empty) or a file
// URL underneath it.
func buildFullPath(profile Profile, filename string) (string, error) {
	davBase, err := normalizeDavBase(profile.URL)
	if err != nil {
		return "", err
	}

	folder := profile.Folder
	if folder == "" {
		folder = defaultDavFolder
	}
	folderURL := strings.TrimRight(davBase+"/"+strings.Trim(folder, "/"), "/")

	if filename == "" {
		return folderURL + "/", nil
	}
	return folderURL + "/" + strings.TrimLeft(filename, "/"), nil
}

func (p *WebDAVProvider) filename(profile Profile) string {
	if profile.Filename != "" {
		return profile.Filename
	}
	return defaultDavFilename
}

// authHeader builds Basic credentials. base64 over raw UTF-8 bytes keeps
// non-ASCII usernames and passwords intact.
func authHeader(profile Profile) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(profile.Username+":"+profile.Password))
}

func (p *WebDAVProvider) do(ctx context.Context, profile Profile, method, target string, headers map[string]string, body string) (Response, error) {
	h := map[string]string{"Authorization": authHeader(profile)}
	for k, v := range headers {
		h[k] = v
	}
	return p.transport.Do(ctx, Request{
		URL:     target,
		Method:  method,
		Headers: h,
		Body:    body,
	})
}

// ensureFolder creates the working folder, treating "already exists" and
// "conflict" responses as success.
func (p *WebDAVProvider) ensureFolder(ctx context.Context, profile Profile) bool {
	folderURL, err := buildFullPath(profile, "")
	if err != nil {
		return false
	}
	resp, err := p.do(ctx, profile, "MKCOL", folderURL, nil, "")
	if err != nil {
		return false
	}
	switch resp.Status {
	case http.StatusCreated, http.StatusNoContent:
		return true
	case http.StatusMethodNotAllowed, http.StatusConflict:
		return true // already exists
	default:
		return false
	}
}

// Test verifies the working folder exists (creating it when absent) and
// answers a PROPFIND.
func (p *WebDAVProvider) Test(ctx context.Context, profile Profile) Result {
	folderURL, err := buildFullPath(profile, "")
	if err != nil {
		return Result{OK: false, Message: err.Error()}
	}

	p.ensureFolder(ctx, profile)

	resp, err := p.do(ctx, profile, "PROPFIND", folderURL, map[string]string{
		"Depth":        "0",
		"Content-Type": "application/xml; charset=utf-8",
	}, propfindBody)
	if err != nil {
		return Result{OK: false, Message: "connection failed"}
	}

	// 207 Multi-Status is the WebDAV success; any 2xx also counts.
	if resp.Status == http.StatusMultiStatus || resp.OK {
		return Result{OK: true, Message: "connection succeeded"}
	}
	return Result{OK: false, Message: fmt.Sprintf("connection failed (HTTP %d)", resp.Status)}
}

// Upload writes the payload as the configured filename.
func (p *WebDAVProvider) Upload(ctx context.Context, profile Profile, payload string) Result {
	target, err := buildFullPath(profile, p.filename(profile))
	if err != nil {
		return Result{OK: false, Message: err.Error()}
	}

	p.ensureFolder(ctx, profile)

	resp, err := p.do(ctx, profile, http.MethodPut, target, map[string]string{
		"Content-Type": "application/json; charset=utf-8",
	}, payload)
	if err != nil {
		return Result{OK: false, Message: "upload failed"}
	}

	if resp.OK || resp.Status == http.StatusCreated || resp.Status == http.StatusNoContent {
		return Result{
			OK:          true,
			Message:     "backup uploaded",
			RemoteEtag:  resp.Headers["etag"],
			RemoteMtime: resp.Headers["last-modified"],
		}
	}
	return Result{OK: false, Message: fmt.Sprintf("upload failed (HTTP %d)", resp.Status)}
}

// Download reads the configured filename. Absence or any non-success
// response yields an explicit failure result, never an error; the body is
// returned unparsed, validation belongs to the normalization pipeline.
func (p *WebDAVProvider) Download(ctx context.Context, profile Profile) Result {
	target, err := buildFullPath(profile, p.filename(profile))
	if err != nil {
		return Result{OK: false, Message: err.Error()}
	}

	resp, err := p.do(ctx, profile, http.MethodGet, target, nil, "")
	if err != nil {
		return Result{OK: false, Message: "download failed"}
	}
	if !resp.OK {
		return Result{OK: false, Message: fmt.Sprintf("download failed or no backup (HTTP %d)", resp.Status)}
	}

	return Result{
		OK:          true,
		Message:     "download succeeded",
		Data:        resp.Body,
		RemoteEtag:  resp.Headers["etag"],
		RemoteMtime: resp.Headers["last-modified"],
	}
}
