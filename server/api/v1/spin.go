package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/luckywheel"
	"github.com/zintix-labs/luckywheel/dto"
	"github.com/zintix-labs/luckywheel/errs"
	"github.com/zintix-labs/luckywheel/server/httperr"
	"github.com/zintix-labs/luckywheel/server/identity"
	"github.com/zintix-labs/luckywheel/server/netsvr/middleware"
	"github.com/zintix-labs/luckywheel/server/svrcfg"
)

// SpinHandler 處理 POST /spin
type SpinHandler struct {
	wheel    *luckywheel.Wheel
	resolver identity.Resolver
	log      *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewSpinHandler(sCfg *svrcfg.SvrCfg) (*SpinHandler, error) {
	if sCfg == nil || sCfg.Wheel == nil {
		return nil, errs.NewFatal("spin handler requires a wheel")
	}
	return &SpinHandler{
		wheel:    sCfg.Wheel,
		resolver: sCfg.Resolver,
		log:      sCfg.Log,
		timeout:  sCfg.SpinTimeout,
		now:      sCfg.Clock,
	}, nil
}

func (h *SpinHandler) Spin(w http.ResponseWriter, q *http.Request) {
	now := h.now()
	if _, err := dto.DecodeSpinRequest(q); err != nil {
		httperr.Write(w, err, now.UnixMilli())
		return
	}

	key, ok := h.resolver.Resolve(q)
	if !ok {
		h.log.Warn("identity.fallback",
			slog.String("key", key.String()),
			slog.String("req_id", middleware.GetReqId(q)),
		)
	}

	ctx, cancel := context.WithTimeout(q.Context(), h.timeout)
	defer cancel()

	res, err := h.wheel.Spin(ctx, key.String(), now)
	if err != nil {
		httperr.Log(h.log, "spin.failed", err)
		httperr.Write(w, err, now.UnixMilli())
		return
	}
	httperr.WriteJSON(w, http.StatusOK, dto.NewSpinResponse(res))
}
