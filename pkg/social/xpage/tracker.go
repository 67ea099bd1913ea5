package xpage

import (
	"fmt"
	"sync"
)

// 页大小约束
const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// ScopeKind 分页范围类型。
type ScopeKind int

const (
	// ScopeFeed 全局 feed。
	ScopeFeed ScopeKind = iota
	// ScopeAvatar 某个 avatar 的帖子列表。
	ScopeAvatar
)

// Scope 命名的分页上下文。
type Scope struct {
	Kind     ScopeKind
	AvatarID string
}

// FeedScope 返回全局 feed 范围。
func FeedScope() Scope { return Scope{Kind: ScopeFeed} }

// AvatarScope 返回某个 avatar 的帖子范围。
func AvatarScope(avatarID string) Scope {
	return Scope{Kind: ScopeAvatar, AvatarID: avatarID}
}

func (s Scope) String() string {
	if s.Kind == ScopeAvatar {
		return "avatar:" + s.AvatarID
	}
	return "feed"
}

// Key 标识一份独立的分页状态。
type Key struct {
	ViewerID string
	Scope    Scope
}

// Ticket 是 RequestNextPage 发放的加载凭证，完成或放弃时交回。
type Ticket struct {
	Key      Key
	Offset   int
	PageSize int

	generation uint64
}

// State 是一个分页范围的状态快照。
type State struct {
	Offset    int
	PageSize  int
	HasMore   bool
	IsLoading bool
}

// Stats 汇总所有分页范围。
type Stats struct {
	Scopes  int
	Loading int
}

type cursor struct {
	offset     int
	pageSize   int
	hasMore    bool
	loading    bool
	generation uint64
}

// Tracker 维护每个 (viewer, scope) 的分页游标。
//
// 状态机为 Idle → Loading → Idle。同一范围同时只允许一个请求，
// 不同范围互不影响。所有方法并发安全。
type Tracker struct {
	mu              sync.Mutex
	cursors         map[Key]*cursor
	defaultPageSize int
	generation      uint64
}

// Option 配置 Tracker。
type Option func(*Tracker)

// WithDefaultPageSize 设置页大小为 0 时使用的默认值，须在 [1, MaxPageSize] 内。
func WithDefaultPageSize(n int) Option {
	return func(t *Tracker) {
		if n >= 1 && n <= MaxPageSize {
			t.defaultPageSize = n
		}
	}
}

// New 创建 Tracker。
func New(opts ...Option) *Tracker {
	t := &Tracker{
		cursors:         make(map[Key]*cursor),
		defaultPageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// DefaultPageSize 返回默认页大小。
func (t *Tracker) DefaultPageSize() int {
	return t.defaultPageSize
}

// RequestNextPage 将范围切换为 Loading 并返回本次应读取的 offset 与页大小。
//
// pageSize 为 0 时使用默认值。范围已在加载中时返回 ErrAlreadyLoading。
// hasMore 为 false 时仍允许请求，上游数据可能已经增长。
func (t *Tracker) RequestNextPage(key Key, pageSize int) (Ticket, error) {
	if pageSize == 0 {
		pageSize = t.defaultPageSize
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return Ticket{}, fmt.Errorf("%w: page size %d outside [1, %d]", ErrInvalidArgument, pageSize, MaxPageSize)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.cursorLocked(key)
	if c.loading {
		return Ticket{}, ErrAlreadyLoading
	}
	c.loading = true
	c.pageSize = pageSize
	// 每次请求一个新代号，已交回的票据不能完成后续请求
	c.generation = t.nextGenerationLocked()
	return Ticket{Key: key, Offset: c.offset, PageSize: pageSize, generation: c.generation}, nil
}

// CompletePage 以本次未过滤的条数完成加载：
// offset 前进 unfiltered，hasMore = (unfiltered == PageSize)。
func (t *Tracker) CompletePage(ticket Ticket, unfiltered int) error {
	return t.Complete(ticket, unfiltered, unfiltered == ticket.PageSize)
}

// Complete 以实际消费的未过滤条数完成加载，hasMore 由调用方判定。
// 用于一次请求内读取了多个上游批次的场景。
func (t *Tracker) Complete(ticket Ticket, consumed int, hasMore bool) error {
	if consumed < 0 {
		return fmt.Errorf("%w: negative consumed count %d", ErrInvalidArgument, consumed)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	c, err := t.activeLocked(ticket)
	if err != nil {
		return err
	}
	c.loading = false
	c.offset += consumed
	c.hasMore = hasMore
	return nil
}

// Abort 放弃本次加载，回到 Idle，offset 不变。
func (t *Tracker) Abort(ticket Ticket) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, err := t.activeLocked(ticket)
	if err != nil {
		return err
	}
	c.loading = false
	return nil
}

// Reset 将范围恢复为初始状态：Idle、offset 0、hasMore true。
// 进行中的请求随之失效，其票据之后会得到 ErrStaleTicket。
func (t *Tracker) Reset(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.cursors[key]
	if !ok {
		return
	}
	c.offset = 0
	c.hasMore = true
	c.loading = false
	c.generation = t.nextGenerationLocked()
}

// Forget 删除范围的全部状态，进行中的票据同样失效。
func (t *Tracker) Forget(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cursors, key)
}

// State 返回范围的状态快照。从未请求过的范围返回初始状态。
func (t *Tracker) State(key Key) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.cursors[key]
	if !ok {
		return State{PageSize: t.defaultPageSize, HasMore: true}
	}
	return State{Offset: c.offset, PageSize: c.pageSize, HasMore: c.hasMore, IsLoading: c.loading}
}

// Stats 返回跟踪的范围数与加载中的范围数。
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := Stats{Scopes: len(t.cursors)}
	for _, c := range t.cursors {
		if c.loading {
			st.Loading++
		}
	}
	return st
}

func (t *Tracker) cursorLocked(key Key) *cursor {
	c, ok := t.cursors[key]
	if !ok {
		c = &cursor{pageSize: t.defaultPageSize, hasMore: true, generation: t.nextGenerationLocked()}
		t.cursors[key] = c
	}
	return c
}

func (t *Tracker) activeLocked(ticket Ticket) (*cursor, error) {
	c, ok := t.cursors[ticket.Key]
	if !ok || !c.loading || c.generation != ticket.generation {
		return nil, ErrStaleTicket
	}
	return c, nil
}

// nextGenerationLocked 返回全局递增的代号，Forget 后重建的范围也不会复用旧代号。
func (t *Tracker) nextGenerationLocked() uint64 {
	t.generation++
	return t.generation
}
