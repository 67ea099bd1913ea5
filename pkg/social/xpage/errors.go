package xpage

import "errors"

var (
	// ErrAlreadyLoading 同一分页范围已有请求在进行中。
	ErrAlreadyLoading = errors.New("xpage: page request already in flight")

	// ErrInvalidArgument 页大小超出 [1, MaxPageSize]。
	ErrInvalidArgument = errors.New("xpage: invalid argument")

	// ErrStaleTicket 票据已失效：范围在请求期间被重置，或不处于加载中。
	ErrStaleTicket = errors.New("xpage: stale ticket")
)
