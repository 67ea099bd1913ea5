package xmongo

import "errors"

var (
	// ErrNilClient 传入的客户端为 nil。
	ErrNilClient = errors.New("xmongo: nil client")

	// ErrNilContext 传入的 context 为 nil。
	// Close 是例外：nil context 会被替换为 context.Background()。
	ErrNilContext = errors.New("xmongo: context must not be nil")

	// ErrClosed 存储已关闭。
	ErrClosed = errors.New("xmongo: store closed")

	// ErrEmptyDatabase 数据库名为空。
	ErrEmptyDatabase = errors.New("xmongo: empty database name")
)
