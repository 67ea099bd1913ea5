package keyload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTimeout 单次回源的默认超时。
const DefaultTimeout = 30 * time.Second

// maxTracked 版本表的最大条目数，超过后整体折叠为下限。
const maxTracked = 4096

// Group 按 key 合并回源。零值不可用，使用 [New] 创建。
type Group struct {
	timeout time.Duration
	sf      singleflight.Group

	mu       sync.Mutex
	versions map[string]uint64
	clock    uint64
	// floor 折叠后未记录 key 的版本，不小于折叠前任何记录过的版本
	floor uint64
}

// New 创建 Group。timeout <= 0 时使用 DefaultTimeout。
func New(timeout time.Duration) *Group {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Group{timeout: timeout, versions: make(map[string]uint64)}
}

// Do 执行或加入 key 上的回源。
//
// versionKey 是失效的粒度，多个 key 可以共享一个 versionKey。
// fetch 成功且期间 versionKey 未被失效时调用 store；store 在内部锁内执行，
// 不得回调 Group。ctx 取消时立即返回 ctx.Err()，回源继续供其他等待者使用。
func (g *Group) Do(ctx context.Context, key, versionKey string,
	fetch func(ctx context.Context) (any, error), store func(v any),
) (any, error) {
	v := g.Version(versionKey)
	ch := g.sf.DoChan(fmt.Sprintf("%s@%d", key, v), func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		val, err := fetch(lctx)
		if err != nil {
			return nil, err
		}
		g.mu.Lock()
		if g.versionLocked(versionKey) == v && store != nil {
			store(val)
		}
		g.mu.Unlock()
		return val, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// Invalidate 推进各 versionKey 的版本，进行中的回源不再写回。
func (g *Group) Invalidate(versionKeys ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.versions)+len(versionKeys) > maxTracked {
		g.floor = g.clock
		clear(g.versions)
	}
	for _, k := range versionKeys {
		g.clock++
		g.versions[k] = g.clock
	}
}

// InvalidateAll 让所有进行中的回源都不再写回。
func (g *Group) InvalidateAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clock++
	g.floor = g.clock
	clear(g.versions)
}

// Version 返回 versionKey 当前的版本。
func (g *Group) Version(versionKey string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.versionLocked(versionKey)
}

func (g *Group) versionLocked(versionKey string) uint64 {
	if v, ok := g.versions[versionKey]; ok {
		return v
	}
	return g.floor
}
