package cookies

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var base = &url.URL{Scheme: "http", Host: "localhost:8000"}

func jarPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cookies.json")
}

func TestJar_PersistsAcrossOpens(t *testing.T) {
	path := jarPath(t)

	first, err := Open(path, base)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	first.SetCookies(base, []*http.Cookie{{
		Name:    "session",
		Value:   "tok-123",
		Path:    "/",
		Expires: time.Now().Add(time.Hour),
	}})

	second, err := Open(path, base)
	if err != nil {
		t.Fatalf("Open() reload error = %v", err)
	}

	cs := second.Cookies(base)
	if len(cs) != 1 {
		t.Fatalf("Cookies() len = %d, want 1", len(cs))
	}
	if cs[0].Name != "session" || cs[0].Value != "tok-123" {
		t.Errorf("Cookies()[0] = %+v, want session=tok-123", cs[0])
	}
}

func TestJar_DropsExpiredCookiesOnLoad(t *testing.T) {
	path := jarPath(t)

	first, err := Open(path, base)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	first.SetCookies(base, []*http.Cookie{{
		Name:    "session",
		Value:   "stale",
		Expires: time.Now().Add(time.Minute),
	}})

	// Age the stored copy past its expiry.
	aged := []byte(`[{"name":"session","value":"stale","expires":"2020-01-01T00:00:00Z"}]`)
	if err := os.WriteFile(path, aged, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	second, err := Open(path, base)
	if err != nil {
		t.Fatalf("Open() reload error = %v", err)
	}
	if cs := second.Cookies(base); len(cs) != 0 {
		t.Errorf("Cookies() after expiry = %v, want none", cs)
	}
}

func TestJar_ClearRemovesMemoryAndDisk(t *testing.T) {
	path := jarPath(t)

	jar, err := Open(path, base)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	jar.SetCookies(base, []*http.Cookie{{
		Name:    "session",
		Value:   "tok",
		Expires: time.Now().Add(time.Hour),
	}})

	if err := jar.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if cs := jar.Cookies(base); len(cs) != 0 {
		t.Errorf("Cookies() after Clear = %v, want none", cs)
	}

	reopened, err := Open(path, base)
	if err != nil {
		t.Fatalf("Open() reload error = %v", err)
	}
	if cs := reopened.Cookies(base); len(cs) != 0 {
		t.Errorf("Cookies() after Clear reload = %v, want none", cs)
	}
}

func TestJar_CorruptFileStartsEmpty(t *testing.T) {
	path := jarPath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	jar, err := Open(path, base)
	if err != nil {
		t.Fatalf("Open() on corrupt file error = %v, want nil", err)
	}
	if cs := jar.Cookies(base); len(cs) != 0 {
		t.Errorf("Cookies() from corrupt file = %v, want none", cs)
	}
}

func TestJar_MissingFileIsFine(t *testing.T) {
	jar, err := Open(jarPath(t), base)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if cs := jar.Cookies(base); len(cs) != 0 {
		t.Errorf("Cookies() = %v, want none", cs)
	}
}

func TestJar_FilePermissions(t *testing.T) {
	path := jarPath(t)

	jar, err := Open(path, base)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	jar.SetCookies(base, []*http.Cookie{{Name: "session", Value: "tok"}})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("cookie file mode = %o, want 0600", perm)
	}
}
