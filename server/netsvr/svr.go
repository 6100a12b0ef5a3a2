package netsvr

import (
	"net/http"

	"github.com/zintix-labs/cbsample/server/app"
)

// NetSvr 可路由、可啟停的 HTTP 服務
type NetSvr interface {
	NetRouter
	app.Component
	Address() string
}

// NetRouter 只有路由行為；Group 回呼只拿得到 NetRouter，子模組無法控制 server 生命週期。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)

	Group(path string, fn func(NetRouter))
}
