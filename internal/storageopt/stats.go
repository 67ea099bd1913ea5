package storageopt

import "sync/atomic"

// HealthCounter 健康检查计数器。
type HealthCounter struct {
	pingCount  atomic.Int64
	pingErrors atomic.Int64
}

// IncPing 增加 ping 计数。
func (h *HealthCounter) IncPing() {
	h.pingCount.Add(1)
}

// IncPingError 增加 ping 错误计数。
func (h *HealthCounter) IncPingError() {
	h.pingErrors.Add(1)
}

// PingCount 返回 ping 计数。
func (h *HealthCounter) PingCount() int64 {
	return h.pingCount.Load()
}

// PingErrors 返回 ping 错误计数。
func (h *HealthCounter) PingErrors() int64 {
	return h.pingErrors.Load()
}
