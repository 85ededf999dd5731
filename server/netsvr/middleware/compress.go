package middleware

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// coder 是單一 Content-Encoding 的 writer 池
type coder struct {
	name  string
	pool  sync.Pool
	fresh func(io.Writer) io.WriteCloser
	reset func(io.WriteCloser, io.Writer)
}

func (c *coder) acquire(w io.Writer) io.WriteCloser {
	if v := c.pool.Get(); v != nil {
		wc := v.(io.WriteCloser)
		c.reset(wc, w)
		return wc
	}
	return c.fresh(w)
}

// release 關閉（寫出 footer）後放回池。discard 為 true 時 footer 丟到 io.Discard。
func (c *coder) release(wc io.WriteCloser, discard bool) {
	if discard {
		c.reset(wc, io.Discard)
	}
	_ = wc.Close()
	c.pool.Put(wc)
}

// 依偏好順序
var coders = []*coder{
	{
		name: "zstd",
		fresh: func(w io.Writer) io.WriteCloser {
			zw, _ := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
			return zw
		},
		reset: func(wc io.WriteCloser, w io.Writer) { wc.(*zstd.Encoder).Reset(w) },
	},
	{
		name: "gzip",
		fresh: func(w io.Writer) io.WriteCloser {
			gw, _ := gzip.NewWriterLevel(w, gzip.BestSpeed)
			return gw
		},
		reset: func(wc io.WriteCloser, w io.Writer) { wc.(*gzip.Writer).Reset(w) },
	},
}

func negotiate(r *http.Request) *coder {
	if r.Method == http.MethodHead || r.Header.Get("Upgrade") != "" {
		return nil
	}
	accept := strings.ToLower(r.Header.Get("Accept-Encoding"))
	if accept == "" {
		return nil
	}
	for _, c := range coders {
		if strings.Contains(accept, c.name) {
			return c
		}
	}
	return nil
}

type compressWriter struct {
	http.ResponseWriter
	enc     io.WriteCloser
	name    string
	decided bool
	plain   bool // 204/304/1xx 不帶 body，不壓縮
}

func (cw *compressWriter) decide(code int) {
	if cw.decided {
		return
	}
	cw.decided = true
	h := cw.Header()
	if (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified ||
		h.Get("Content-Encoding") != "" {
		cw.plain = true
		return
	}
	h.Del("Content-Length")
	h.Set("Content-Encoding", cw.name)
	h.Add("Vary", "Accept-Encoding")
}

func (cw *compressWriter) WriteHeader(code int) {
	cw.decide(code)
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if !cw.decided {
		if cw.Header().Get("Content-Type") == "" {
			cw.Header().Set("Content-Type", http.DetectContentType(b))
		}
		cw.WriteHeader(http.StatusOK)
	}
	if cw.plain {
		return cw.ResponseWriter.Write(b)
	}
	return cw.enc.Write(b)
}

func (cw *compressWriter) Flush() {
	if !cw.plain {
		if f, ok := cw.enc.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Compression 依 Accept-Encoding 以 zstd 或 gzip 壓縮回應。
// Content-Encoding 在第一次寫 header 時才決定，無 body 的 status 不會帶壓縮 header。
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := negotiate(r)
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}
		cw := &compressWriter{ResponseWriter: w, name: c.name}
		cw.enc = c.acquire(w)
		defer func() {
			// handler 沒寫任何東西也不該送出空壓縮串流
			c.release(cw.enc, cw.plain || !cw.decided)
		}()
		next.ServeHTTP(cw, r)
	})
}
