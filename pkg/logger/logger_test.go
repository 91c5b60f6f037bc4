package logger

import (
	"testing"

	"berthops/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("format=%s 初始化失败: %v", format, err)
		}
		if l == nil {
			t.Fatalf("format=%s 日志器不应为 nil", format)
		}
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Error("无效级别应返回错误")
	}
}

func TestComponent_NilBase(t *testing.T) {
	if Component(nil, "x") == nil {
		t.Error("nil 基础日志器应退化为 Nop")
	}
}
