package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/zintix-labs/luckywheel/dto"
	"github.com/zintix-labs/luckywheel/server/httperr"
)

// Recover 攔截 handler panic：記一筆 Error（含 stack）並回 500 INTERNAL。
// http.ErrAbortHandler 依 net/http 慣例原樣往上丟。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rv := recover()
				if rv == nil {
					return
				}
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				log.LogAttrs(r.Context(), slog.LevelError, "http.panic",
					slog.Any("panic", rv),
					slog.String("path", r.URL.Path),
					slog.String("req_id", GetReqId(r)),
					slog.String("stack", string(debug.Stack())),
				)
				if r.Header.Get("Connection") != "Upgrade" {
					httperr.WriteJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Reason: dto.ReasonInternal})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
