// Package xretry 提供基于 avast/retry-go/v5 的重试执行器。
//
// Retryer 组合最大尝试次数与指数退避，只返回最后一次错误。
// 被 PermanentError 包装的错误不会重试，context 取消后也不再重试。
//
//	r := xretry.NewRetryer(xretry.WithMaxAttempts(3))
//	items, err := xretry.DoWithResult(ctx, r, func(ctx context.Context) ([]Item, error) {
//	    return client.Fetch(ctx)
//	})
package xretry
