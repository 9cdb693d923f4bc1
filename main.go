package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"WProject/config"
	"WProject/logger"
	"WProject/middleware"
	midsec "WProject/middleware/security"
	"WProject/module/authz"
	"WProject/module/authz/version"
	"WProject/module/tenant"
	tenantsvc "WProject/module/tenant/service"
	"WProject/module/user"
	usersvc "WProject/module/user/service"
	"WProject/service/natsx"
	storagepg "WProject/service/storage/pg"
	storageredis "WProject/service/storage/redis"
	jwtsec "WProject/tools/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config failed", zap.Error(err))
		return
	}

	// Postgres：权威存储，必须可用
	if err := storagepg.InitPg(cfg.DatabaseURL); err != nil {
		logger.Error("postgres init failed", zap.Error(err))
		return
	}
	defer storagepg.ClosePg()

	// Redis：快路径，连不上就整条缓存层关闭，版本查询走 DB-only
	var cache version.Cache
	if cfg.RedisAddr != "" {
		err := storageredis.InitRedis(storageredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		})
		if err != nil {
			logger.Warn("redis unavailable, running db-only", zap.Error(err))
		} else {
			cache = storageredis.GetRedis()
			defer storageredis.CloseRedis() //nolint:errcheck
		}
	} else {
		logger.Info("REDIS_ADDR empty, cache tier disabled")
	}

	// NATS：可选，bump 事件尽力外发
	var events version.EventSink
	if cfg.NatsServers != "" {
		nm, err := natsx.NewNatsManager(natsx.NatsxConfig{
			Servers: strings.Split(cfg.NatsServers, ","),
			Name:    cfg.NatsName,
		})
		if err != nil {
			logger.Warn("nats unavailable, bump events disabled", zap.Error(err))
		} else {
			defer nm.Close() //nolint:errcheck
			events = &authz.EventPublisher{NM: nm}
		}
	}

	store := &version.Store{
		DB:           storagepg.GetPool(),
		Cache:        cache,
		CacheTimeout: time.Duration(cfg.CacheTimeoutMS) * time.Millisecond,
		DBTimeout:    time.Duration(cfg.DBTimeoutMS) * time.Millisecond,
		CacheTTL:     time.Duration(cfg.CacheTTLSecs) * time.Second,
	}
	provider := &version.Provider{Store: store}
	bumper := &version.Bumper{Store: store, Events: events}

	jwtOpts := jwtsec.Options{
		Secret: []byte(cfg.JWTSecret),
		Alg:    "HS256",
		TTL:    time.Duration(cfg.JWTTTLMin) * time.Minute,
	}

	// 认证链：bearer 抽取 -> 版本门控
	mgr := middleware.Manager()
	mgr.Add(midsec.Middleware(midsec.DefaultOptions()))
	mgr.Add(midsec.VersionGate(&midsec.VersionOptions{
		JWT:     jwtOpts,
		Source:  provider,
		Enforce: cfg.AuthzEnforce,
	}))

	tenantH := &tenant.Handler{Svc: &tenantsvc.Service{
		DB:     storagepg.GetPool(),
		Bumper: bumper,
	}}
	userH := &user.Handler{Svc: &usersvc.Service{
		DB:       storagepg.GetPool(),
		Bumper:   bumper,
		Versions: provider,
		Verifier: nil, // 接 IdP；缺省 nil 时登录接口直接拒绝
		JWT:      jwtOpts,
	}}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	middleware.POST(api, "/auth/login", userH.HandlerLogin, middleware.RouteOpt{IsAuth: false})

	// 下游策略引擎边界：门控放行后才会走到这里
	middleware.GET(api, "/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   c.GetString(midsec.CtxUserKey),
			"tenant_id": c.GetString(midsec.CtxTenantKey),
		})
	}, middleware.RouteOpt{IsAuth: true})

	// 角色/策略定义：真实变更 bump Tenant scope
	middleware.POST(api, "/roles", tenantH.HandlerCreateRole, middleware.RouteOpt{IsAuth: true})
	middleware.DELETE(api, "/roles/:role", tenantH.HandlerDeleteRole, middleware.RouteOpt{IsAuth: true})
	middleware.POST(api, "/roles/:role/policies", tenantH.HandlerAddPolicy, middleware.RouteOpt{IsAuth: true})
	middleware.DELETE(api, "/roles/:role/policies", tenantH.HandlerRemovePolicy, middleware.RouteOpt{IsAuth: true})

	// 用户生命周期：真实变更只 bump User scope
	middleware.POST(api, "/users/:id/assign-role", userH.HandlerAssignRole, middleware.RouteOpt{IsAuth: true})
	middleware.POST(api, "/users/:id/suspend", userH.HandlerSuspend, middleware.RouteOpt{IsAuth: true})
	middleware.POST(api, "/users/:id/reactivate", userH.HandlerReactivate, middleware.RouteOpt{IsAuth: true})
	middleware.POST(api, "/users/:id/reset-password", userH.HandlerResetPassword, middleware.RouteOpt{IsAuth: true})
	middleware.POST(api, "/users/:id/force-logout", userH.HandlerForceLogout, middleware.RouteOpt{IsAuth: true})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("authz service listening", zap.String("addr", addr),
		zap.Bool("enforce", cfg.AuthzEnforce), zap.Bool("cache", cache != nil))
	if err := r.Run(addr); err != nil {
		logger.Error("server exited", zap.Error(err))
	}
}
