// Package identity 從 HTTP 請求解析玩家識別，作為 spin 狀態的 key。
package identity

import (
	"net/http"
	"strings"
	"unicode"
)

// Key 是已命名空間化的識別，例如 "device:abc"。
type Key string

func (k Key) String() string { return string(k) }

// Anonymous 無法解析識別時共用的唯一 bucket。
// 所有匿名請求共享同一個冷卻。
const Anonymous Key = "anonymous"

// MaxIDLen 單一 header 值的最大長度（bytes）
const MaxIDLen = 128

const (
	HeaderDeviceID  = "X-Device-Id"
	HeaderSessionID = "X-Session-Id"
)

// Resolver 決定一個請求屬於哪個玩家。必須是確定性的且無副作用。
type Resolver interface {
	Resolve(r *http.Request) (Key, bool)
}

// Source 一個識別來源：header 名稱與 key 前綴
type Source struct {
	Header string
	Prefix string
}

// HeaderResolver 依序檢查 Sources，第一個合法的值勝出。
type HeaderResolver struct {
	Sources []Source
}

// DefaultSources X-Device-Id 優先，其次 X-Session-Id
var DefaultSources = []Source{
	{Header: HeaderDeviceID, Prefix: "device"},
	{Header: HeaderSessionID, Prefix: "session"},
}

// NewHeaderResolver 以 header 名稱建立 resolver。
// 未給 headers 時使用 DefaultSources；自訂 header 的前綴取小寫 header 名稱，
// 但兩個預設 header 仍維持 device / session 前綴。
func NewHeaderResolver(headers ...string) *HeaderResolver {
	if len(headers) == 0 {
		return &HeaderResolver{Sources: append([]Source(nil), DefaultSources...)}
	}
	srcs := make([]Source, 0, len(headers))
	for _, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		srcs = append(srcs, Source{Header: h, Prefix: prefixFor(h)})
	}
	return &HeaderResolver{Sources: srcs}
}

func prefixFor(header string) string {
	canon := http.CanonicalHeaderKey(header)
	for _, s := range DefaultSources {
		if s.Header == canon {
			return s.Prefix
		}
	}
	return strings.ToLower(canon)
}

// Resolve 實作 Resolver。無可用值時回 (Anonymous, false)。
func (h *HeaderResolver) Resolve(r *http.Request) (Key, bool) {
	if h == nil || r == nil {
		return Anonymous, false
	}
	for _, s := range h.Sources {
		if v, ok := clean(r.Header.Get(s.Header)); ok {
			return Key(s.Prefix + ":" + v), true
		}
	}
	return Anonymous, false
}

func clean(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > MaxIDLen {
		return "", false
	}
	for _, c := range v {
		if c == unicode.ReplacementChar || !unicode.IsPrint(c) {
			return "", false
		}
	}
	return v, true
}
