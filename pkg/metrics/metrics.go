package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ReqCount 请求总数
	ReqCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condo_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ReqDuration 请求耗时
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "condo_request_duration_seconds",
			Help: "Request duration seconds",
		},
		[]string{"method", "path"},
	)

	// ErrorCount 错误数，按处理函数和错误码统计
	ErrorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condo_errors_total",
			Help: "Total app errors",
		},
		[]string{"handler", "type"},
	)

	// BusinessEvents 业务动作计数：转让、领取、问卷提交、改密码
	BusinessEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condo_business_events_total",
			Help: "Completed workflow actions",
		},
		[]string{"event"},
	)

	registerOnce sync.Once
)

// 业务事件名称
const (
	EventOwnershipTransfer = "ownership_transfer"
	EventLockerReceived    = "locker_received"
	EventSurveyResponse    = "survey_response"
	EventPasswordChanged   = "password_changed"
)

// InitMetrics 注册所有指标，可重复调用
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ReqCount, ReqDuration, ErrorCount, BusinessEvents)
	})
}
