// Package cookies persists the server-issued session cookie between
// invocations. The cookie value is the only credential the client ever
// holds; no bearer token is constructed.
package cookies

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// Jar is an http.CookieJar backed by a JSON file under the config dir.
// Every SetCookies flushes to disk so one-shot commands share the
// session a previous login established.
type Jar struct {
	mu    sync.Mutex
	inner *cookiejar.Jar
	path  string
	base  *url.URL
}

func Open(path string, base *url.URL) (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	j := &Jar{inner: inner, path: path, base: base}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Jar) SetCookies(u *url.URL, cs []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cs)
	// Persistence is best effort; a read-only config dir must not break
	// the in-memory session.
	_ = j.flush()
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Clear drops every cookie for the base host, in memory and on disk.
func (j *Jar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.inner = inner
	return j.flush()
}

func (j *Jar) load() error {
	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cookie file: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		// A corrupt file means a dead session, not a dead client.
		return nil
	}

	cs := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		if !sc.Expires.IsZero() && sc.Expires.Before(time.Now()) {
			continue
		}
		cs = append(cs, &http.Cookie{
			Name:    sc.Name,
			Value:   sc.Value,
			Path:    sc.Path,
			Expires: sc.Expires,
		})
	}
	j.inner.SetCookies(j.base, cs)
	return nil
}

func (j *Jar) flush() error {
	cs := j.inner.Cookies(j.base)
	stored := make([]storedCookie, 0, len(cs))
	for _, c := range cs {
		stored = append(stored, storedCookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Expires: c.Expires,
		})
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0600)
}
