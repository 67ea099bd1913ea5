// Package xctx 在 context 中传递浏览者身份与请求 ID。
//
// 写入使用 WithXxx，读取使用同名函数（缺失返回空字符串），
// 必须存在的场景使用 RequireXxx。EnsureRequestID 在缺失时生成 UUIDv7。
//
// AppendAttrs/Attrs 将这些字段转换为 slog.Attr，供 xlog 的 EnrichHandler 使用。
package xctx
