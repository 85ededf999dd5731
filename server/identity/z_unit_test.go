package identity

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func req(headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/spin", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestHeaderResolver(t *testing.T) {
	res := NewHeaderResolver()
	cases := []struct {
		name    string
		headers map[string]string
		want    Key
		ok      bool
	}{
		{"device", map[string]string{HeaderDeviceID: "d-1"}, "device:d-1", true},
		{"session", map[string]string{HeaderSessionID: "s-1"}, "session:s-1", true},
		{"device wins", map[string]string{HeaderDeviceID: "d-1", HeaderSessionID: "s-1"}, "device:d-1", true},
		{"trimmed", map[string]string{HeaderDeviceID: "  d-2  "}, "device:d-2", true},
		{"blank device falls to session", map[string]string{HeaderDeviceID: "   ", HeaderSessionID: "s-2"}, "session:s-2", true},
		{"none", nil, Anonymous, false},
		{"too long", map[string]string{HeaderDeviceID: strings.Repeat("x", MaxIDLen+1)}, Anonymous, false},
		{"max len", map[string]string{HeaderDeviceID: strings.Repeat("x", MaxIDLen)}, Key("device:" + strings.Repeat("x", MaxIDLen)), true},
		{"control char", map[string]string{HeaderDeviceID: "a\x01b"}, Anonymous, false},
	}
	for _, c := range cases {
		got, ok := res.Resolve(req(c.headers))
		if got != c.want || ok != c.ok {
			t.Errorf("[%s] got (%q,%v) want (%q,%v)", c.name, got, ok, c.want, c.ok)
		}
	}
}

func TestNamespacesDoNotMerge(t *testing.T) {
	res := NewHeaderResolver()
	a, _ := res.Resolve(req(map[string]string{HeaderDeviceID: "same"}))
	b, _ := res.Resolve(req(map[string]string{HeaderSessionID: "same"}))
	if a == b {
		t.Fatalf("device and session keys merged: %q", a)
	}
}

func TestCustomHeaders(t *testing.T) {
	res := NewHeaderResolver("x-player-id", "x-device-id")
	got, ok := res.Resolve(req(map[string]string{"X-Player-Id": "p1", HeaderDeviceID: "d1"}))
	if !ok || got != "x-player-id:p1" {
		t.Fatalf("unexpected key: %q", got)
	}
	got, ok = res.Resolve(req(map[string]string{HeaderDeviceID: "d1"}))
	if !ok || got != "device:d1" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func TestNilResolver(t *testing.T) {
	var res *HeaderResolver
	if k, ok := res.Resolve(req(nil)); ok || k != Anonymous {
		t.Fatalf("nil resolver should fall back to anonymous")
	}
}
