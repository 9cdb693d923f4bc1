package natsx

import (
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// NatsxConfig 客户端配置
type NatsxConfig struct {
	Servers       []string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// NatsxClient 统一客户端：授权服务只做生产端，不消费
type NatsxClient struct {
	cfg NatsxConfig
	nc  *nats.Conn
}

// NewNatsxClient 连接 NATS
func NewNatsxClient(cfg NatsxConfig) (*NatsxClient, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, err
	}
	return &NatsxClient{cfg: cfg, nc: nc}, nil
}

func (c *NatsxClient) Close() error {
	if c == nil || c.nc == nil {
		return nil
	}
	c.nc.Drain() //nolint:errcheck // 尽力排空
	c.nc.Close()
	return nil
}

func (c *NatsxClient) publish(subject string, data []byte, hdr map[string]string) error {
	msg := nats.NewMsg(subject)
	msg.Data = data
	for k, v := range hdr {
		msg.Header.Add(k, v)
	}
	return c.nc.PublishMsg(msg)
}
