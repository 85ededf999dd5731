package netsvr

import (
	"net/http"

	"github.com/zintix-labs/luckywheel/server/app"
)

// NetSvr 封裝「路由行為 + 服務啟停」，只交給最外層組裝使用。
// 本身實作 app.Component，可直接交給 app.App 管理生命週期。
type NetSvr interface {
	NetRouter
	app.Component
}

// NetRouter 只有路由行為，handler / 子模組拿不到 Run/Shutdown。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)

	Group(path string, fn func(NetRouter))
}
