// 自定义日志格式化器
package logger

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// FormatTimestamp 格式化时间戳为统一的毫秒精度格式
// 返回格式："2006-01-02 15:04:05.000"
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000")
}

// NowFormatted 返回当前时间的格式化字符串
func NowFormatted() string {
	return FormatTimestamp(time.Now())
}

// LogType 日志类型枚举
type LogType string

const (
	// SystemLog 系统日志 - 记录进程启动、关闭、配置加载等运行状态
	SystemLog LogType = "system"
	// ShardLog 分片日志 - 记录某个发送线程/分片的生命周期
	ShardLog LogType = "shard"
	// ScanLog 扫描日志 - 记录单个探测包的发送或响应处理结果
	ScanLog LogType = "scan"
	// RateLog 速率日志 - 记录发送速率的调节事件（SIGUSR1/SIGUSR2、自动降速）
	RateLog LogType = "rate"
	// ErrorLog 错误日志 - 记录系统错误和异常
	ErrorLog LogType = "error"
)

// SystemLogEntry 系统日志条目结构
type SystemLogEntry struct {
	Component   string                 `json:"component"`    // 系统组件（config, validation, transmit等）
	Event       string                 `json:"event"`        // 事件类型（startup, shutdown, error等）
	Message     string                 `json:"message"`      // 详细信息
	Level       string                 `json:"level"`        // 日志级别
	ExtraFields map[string]interface{} `json:"extra_fields"` // 额外字段
}

// ShardLogEntry 分片日志条目结构
type ShardLogEntry struct {
	ShardNum int    `json:"shard_num"` // 分片编号
	Event    string `json:"event"`     // 事件类型（start, complete, cancelled）
	Sent     int64  `json:"sent"`      // 已发送探测包数
	Failed   int64  `json:"failed"`    // 发送失败数
	Hosts    int64  `json:"hosts"`     // 已扫描目标数
	Message  string `json:"message"`   // 详细信息
}

// ScanLogEntry 扫描日志条目结构
type ScanLogEntry struct {
	Probe          string `json:"probe"`          // 探测模块名（dns, udp6等）
	Target         string `json:"target"`         // 扫描目标地址
	Classification string `json:"classification"` // 响应分类（success, icmp-unreach等）
	Success        bool   `json:"success"`        // 是否判定为存活响应
	Message        string `json:"message"`        // 详细信息
}

// RateLogEntry 速率日志条目结构
type RateLogEntry struct {
	OldTargetPPS int64  `json:"old_target_pps"` // 调整前的目标速率
	NewTargetPPS int64  `json:"new_target_pps"` // 调整后的目标速率
	Reason       string `json:"reason"`         // 调整原因（sigusr1, sigusr2, manual）
}

// ErrorLogEntry 错误日志条目结构
type ErrorLogEntry struct {
	Level       string                 `json:"level"`        // 错误级别
	Error       string                 `json:"error"`        // 错误信息
	Component   string                 `json:"component"`    // 出错组件
	ExtraFields map[string]interface{} `json:"extra_fields"` // 额外字段
}

// LogSystemEvent 记录系统事件日志
// 用于记录进程启动、关闭、组件状态变化等系统级事件
func LogSystemEvent(component, event, message string, level LogLevel, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	logrusLevel := toLogrusLevel(level)

	entry := SystemLogEntry{
		Component: component,
		Event:     event,
		Message:   message,
		Level:     logrusLevel.String(),
	}

	fields := logrus.Fields{
		"type":      SystemLog,
		"component": entry.Component,
		"event":     entry.Event,
		"message":   entry.Message,
		"level":     entry.Level,
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	switch logrusLevel {
	case logrus.DebugLevel:
		LoggerInstance.logger.WithFields(fields).Debug(fmt.Sprintf("System event: %s - %s", component, event))
	case logrus.InfoLevel:
		LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("System event: %s - %s", component, event))
	case logrus.WarnLevel:
		LoggerInstance.logger.WithFields(fields).Warn(fmt.Sprintf("System event: %s - %s", component, event))
	case logrus.ErrorLevel:
		LoggerInstance.logger.WithFields(fields).Error(fmt.Sprintf("System event: %s - %s", component, event))
	case logrus.FatalLevel:
		LoggerInstance.logger.WithFields(fields).Fatal(fmt.Sprintf("System event: %s - %s", component, event))
	default:
		LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("System event: %s - %s", component, event))
	}
}

// LogShardEvent 记录分片生命周期日志
// 用于记录单个发送线程/分片的启动、完成或被取消
func LogShardEvent(shardNum int, event string, sent, failed, hosts int64, message string) {
	if LoggerInstance == nil {
		return
	}

	entry := ShardLogEntry{
		ShardNum: shardNum,
		Event:    event,
		Sent:     sent,
		Failed:   failed,
		Hosts:    hosts,
		Message:  message,
	}

	fields := logrus.Fields{
		"type":      ShardLog,
		"shard_num": entry.ShardNum,
		"event":     entry.Event,
		"sent":      entry.Sent,
		"failed":    entry.Failed,
		"hosts":     entry.Hosts,
		"message":   entry.Message,
	}

	switch event {
	case "complete":
		LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("Shard %d complete: %d sent, %d failed, %d hosts", shardNum, sent, failed, hosts))
	case "cancelled":
		LoggerInstance.logger.WithFields(fields).Warn(fmt.Sprintf("Shard %d cancelled: %s", shardNum, message))
	default:
		LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("Shard %d: %s", shardNum, event))
	}
}

// LogScanResult 记录单个探测响应的处理结果
// 用于记录探测模块对收到的响应包做出的判定
func LogScanResult(probe, target, classification string, success bool, message string) {
	if LoggerInstance == nil {
		return
	}

	entry := ScanLogEntry{
		Probe:          probe,
		Target:         target,
		Classification: classification,
		Success:        success,
		Message:        message,
	}

	fields := logrus.Fields{
		"type":           ScanLog,
		"probe":          entry.Probe,
		"target":         entry.Target,
		"classification": entry.Classification,
		"success":        entry.Success,
		"message":        entry.Message,
	}

	if success {
		LoggerInstance.logger.WithFields(fields).Debug(fmt.Sprintf("%s: %s classified as %s", probe, target, classification))
	} else {
		LoggerInstance.logger.WithFields(fields).Debug(fmt.Sprintf("%s: %s discarded (%s)", probe, target, classification))
	}
}

// LogRateAdjustment 记录发送速率调节事件
// 用于记录运行期信号（SIGUSR1/SIGUSR2）或自动降速导致的目标速率变化
func LogRateAdjustment(oldPPS, newPPS int64, reason string) {
	if LoggerInstance == nil {
		return
	}

	entry := RateLogEntry{
		OldTargetPPS: oldPPS,
		NewTargetPPS: newPPS,
		Reason:       reason,
	}

	fields := logrus.Fields{
		"type":           RateLog,
		"old_target_pps": entry.OldTargetPPS,
		"new_target_pps": entry.NewTargetPPS,
		"reason":         entry.Reason,
	}

	LoggerInstance.logger.WithFields(fields).Info(fmt.Sprintf("Rate adjusted: %d -> %d pps (%s)", oldPPS, newPPS, reason))
}

// LogError 记录错误日志
// 用于记录发送、接收、配置加载等环节的错误
func LogError(err error, component string, extraFields map[string]interface{}) {
	if LoggerInstance == nil || err == nil {
		return
	}

	entry := ErrorLogEntry{
		Level:     "error",
		Error:     err.Error(),
		Component: component,
	}

	fields := logrus.Fields{
		"type":      ErrorLog,
		"level":     entry.Level,
		"error":     entry.Error,
		"component": entry.Component,
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	LoggerInstance.logger.WithFields(fields).Errorf("Error in %s: %s", component, err.Error())
}

// LogLevel 日志级别类型，封装logrus.Level避免调用方直接依赖logrus
type LogLevel int

const (
	// DebugLevel 调试级别
	DebugLevel LogLevel = iota
	// InfoLevel 信息级别
	InfoLevel
	// WarnLevel 警告级别
	WarnLevel
	// ErrorLevel 错误级别
	ErrorLevel
	// FatalLevel 致命错误级别
	FatalLevel
)

// toLogrusLevel 将封装的LogLevel转换为logrus.Level
func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case InfoLevel:
		return logrus.InfoLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
