// Package xlog 提供基于 log/slog 的结构化日志。
//
// 典型用法：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("info").
//		SetFormat("json").
//		SetRotation("/var/log/quanta/quanta.log", xrotate.WithMaxSize(100)).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
//	logger.Info(ctx, "page assembled", xlog.ViewerID(v), xlog.Count(n))
//
// 启用 enrich（默认）时，ctx 中由 xctx 注入的 viewer_id 与 request_id
// 会自动附加到每条日志。
package xlog
