package xrelation

import "errors"

var (
	// ErrNilClient 传入的客户端为 nil。
	ErrNilClient = errors.New("xrelation: nil client")

	// ErrNilContext 传入的 context 为 nil。
	ErrNilContext = errors.New("xrelation: context must not be nil")

	// ErrClosed 存储已关闭。
	ErrClosed = errors.New("xrelation: store closed")

	// ErrCorruptRecord Redis 中的记录无法解析。
	ErrCorruptRecord = errors.New("xrelation: corrupt record")
)
