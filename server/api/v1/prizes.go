package v1

import (
	"net/http"

	"github.com/zintix-labs/luckywheel"
	"github.com/zintix-labs/luckywheel/dto"
	"github.com/zintix-labs/luckywheel/server/httperr"
)

// Prizes GET /v1/prizes：獎項列表與正規化機率
func Prizes(wheel *luckywheel.Wheel) http.HandlerFunc {
	list := dto.NewPrizeList(wheel)
	return func(w http.ResponseWriter, _ *http.Request) {
		httperr.WriteJSON(w, http.StatusOK, list)
	}
}

// Healthz GET /healthz
func Healthz(w http.ResponseWriter, _ *http.Request) {
	httperr.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
