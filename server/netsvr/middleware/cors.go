package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS 允許前端（瀏覽器）從指定來源呼叫 API。
//
// origins 為空時不掛任何 CORS header（同源部署）。身分 header 必須列在 AllowedHeaders，
// Retry-After 必須 expose，前端才能顯示倒數。
// extraHeaders 追加自訂的身分 header。
func CORS(origins []string, extraHeaders ...string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	headers := append([]string{"Accept", "Content-Type", "X-Device-Id", "X-Session-Id", HeaderRequestID}, extraHeaders...)
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   headers,
		ExposedHeaders:   []string{"Retry-After", HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	})
}
