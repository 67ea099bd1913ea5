// Package xrotate 提供基于 lumberjack 的日志文件轮转。
//
// Rotator 满足 io.WriteCloser，可直接作为 xlog 的输出目标。
package xrotate
