package natsx

import (
	"fmt"
)

// NatsManager 统一门面：对外只暴露这一个对象来用
type NatsManager struct {
	client *NatsxClient
}

// NewNatsManager 初始化
func NewNatsManager(cfg NatsxConfig) (*NatsManager, error) {
	c, err := NewNatsxClient(cfg)
	if err != nil {
		return nil, err
	}
	return &NatsManager{client: c}, nil
}

// Close 释放资源
func (m *NatsManager) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.Close()
}

// Publish 生产消息
func (m *NatsManager) Publish(subject string, data []byte, hdr map[string]string) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("manager not initialized")
	}
	return m.client.publish(subject, data, hdr)
}
