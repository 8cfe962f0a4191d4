package logger

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"

	"k8s.io/klog/v2"
)

// Options 日志选项
type Options struct {
	Verbosity int    // klog -v 级别，2 及以上输出逐条消息
	File      string // 非空时同时写入该文件
}

// Init 初始化 klog；fs 为 nil 时使用独立的 FlagSet
func Init(fs *flag.FlagSet, opts Options) error {
	if fs == nil {
		fs = flag.NewFlagSet("klog", flag.ContinueOnError)
	}
	if fs.Lookup("v") == nil {
		klog.InitFlags(fs)
	}

	if err := fs.Set("v", strconv.Itoa(opts.Verbosity)); err != nil {
		return fmt.Errorf("设置日志级别失败: %w", err)
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("创建日志目录失败: %w", err)
		}
		for key, value := range map[string]string{
			"logtostderr":     "false",
			"alsologtostderr": "true",
			"log_file":        opts.File,
		} {
			if err := fs.Set(key, value); err != nil {
				return fmt.Errorf("设置日志参数 %s 失败: %w", key, err)
			}
		}
	}

	klog.V(1).Infof("日志已初始化 (v=%d, file=%q)", opts.Verbosity, opts.File)
	return nil
}

// Flush 刷新缓冲的日志
func Flush() {
	klog.Flush()
}

// LogPanic 记录 panic 及调用栈
func LogPanic(r any) {
	klog.ErrorDepth(1, fmt.Sprintf("[PANIC] %v\n%s", r, debug.Stack()))
}
