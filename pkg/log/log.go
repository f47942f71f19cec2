// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logFileEnvKey = "NOTEBOOKD_LOG_FILE"

var (
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	base        *zap.Logger
	sugar       *zap.SugaredLogger
)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel

	logFile := os.Getenv(logFileEnvKey)
	if logFile != "" {
		cfg.OutputPaths = []string{logFile}
		cfg.ErrorOutputPaths = []string{logFile}
	} else {
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stdout"}
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	base = logger
	sugar = base.Sugar()
}

// SetLevel sets the minimum level emitted by the process logger.
// Accepts "debug", "info", "warn", "error"; unrecognized values fall back to info.
func SetLevel(level string) {
	atomicLevel.SetLevel(parseLevel(level))
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func Sync() {
	_ = base.Sync()
}

func Debug(format string, args ...any) {
	sugar.Debugf(format, args...)
}

func Info(format string, args ...any) {
	sugar.Infof(format, args...)
}

func Warn(format string, args ...any) {
	sugar.Warnf(format, args...)
}

// Warning is an alias to Warn for compatibility.
func Warning(format string, args ...any) {
	Warn(format, args...)
}

func Error(format string, args ...any) {
	sugar.Errorf(format, args...)
}

// With returns a sugared child logger with the given structured fields attached,
// for call sites that want to tag every line with e.g. a notebook path or task id.
func With(args ...any) *zap.SugaredLogger {
	return sugar.With(args...)
}
