package middleware

import (
	"github.com/gin-gonic/gin"
)

// RouteOpt 配置选项
type RouteOpt struct {
	IsAuth bool // true 则挂认证链（bearer 抽取 + 版本门控）
}

// POST 封装
func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, Manager().Use(), handler)
	} else {
		r.POST(path, handler)
	}
}

// GET 封装
func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, Manager().Use(), handler)
	} else {
		r.GET(path, handler)
	}
}

// DELETE 封装
func DELETE(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.DELETE(path, Manager().Use(), handler)
	} else {
		r.DELETE(path, handler)
	}
}
