// Package xpage 跟踪每个 (viewer, scope) 的分页游标。
//
// 调用流程：
//
//	ticket, err := tracker.RequestNextPage(key, 20)
//	if err != nil {
//		return err // ErrAlreadyLoading / ErrInvalidArgument
//	}
//	items, err := fetch(ticket.Offset, ticket.PageSize)
//	if err != nil {
//		_ = tracker.Abort(ticket)
//		return err
//	}
//	_ = tracker.CompletePage(ticket, len(items))
//
// offset 只在 Complete 时前进，且以上游未过滤的条数计。
// hasMore 同样基于未过滤条数，安全过滤只影响展示，不影响分页是否耗尽。
package xpage
