package authz

import (
	"context"
	"encoding/json"
	"time"

	"WProject/logger"
	"WProject/module/authz/version"
	"WProject/service/natsx"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const SubjectVersionBumped = "authz.version.bumped"

// BumpEventData 授权版本变更事件体
type BumpEventData struct {
	Scope   string `json:"scope"`    // "tenant" | "user"
	ScopeID string `json:"scope_id"` // tenant_id / user_id
	Version int64  `json:"version"`  // 自增后的新值
}

// EventEnvelope 事件信封，跨服务消费的稳定外壳
type EventEnvelope struct {
	EventType string        `json:"event_type"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"` // 信封 schema 版本
	Data      BumpEventData `json:"data"`
}

// EventPublisher 把 bump 通知发到 NATS。尽力投递：失败只记日志。
type EventPublisher struct {
	NM *natsx.NatsManager
}

func (p *EventPublisher) PublishBump(_ context.Context, sc version.Scope, newVersion int64) {
	if p == nil || p.NM == nil {
		return
	}
	kind := "tenant"
	if sc.Kind == version.KindUser {
		kind = "user"
	}
	env := EventEnvelope{
		EventType: SubjectVersionBumped,
		Timestamp: time.Now().UTC(),
		Version:   "1.0",
		Data: BumpEventData{
			Scope:   kind,
			ScopeID: sc.ID,
			Version: newVersion,
		},
	}
	body, err := json.Marshal(env)
	if err != nil {
		logger.Error("marshal bump event failed", zap.Error(err))
		return
	}
	hdr := map[string]string{"Nats-Msg-Id": uuid.NewString()}
	if err := p.NM.Publish(SubjectVersionBumped, body, hdr); err != nil {
		logger.Warn("publish bump event failed",
			zap.String("scope", sc.String()), zap.Error(err))
	}
}
