package xstore

import "time"

// FeedItem 是一条帖子。除排序与过滤所需字段外，内容对本模块不透明。
type FeedItem struct {
	PostID    string    `json:"postId" bson:"_id"`
	AuthorID  string    `json:"authorAvatarId" bson:"author_id"`
	Content   string    `json:"content,omitempty" bson:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	Likes     int64     `json:"likes" bson:"likes"`
	Comments  int64     `json:"comments" bson:"comments"`
	Views     int64     `json:"views" bson:"views"`
}

// Profile 是 avatar 的资料。
type Profile struct {
	AvatarID    string    `json:"avatarId" bson:"_id"`
	DisplayName string    `json:"displayName" bson:"display_name"`
	Bio         string    `json:"bio,omitempty" bson:"bio,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// Stats 是 avatar 的统计数据。
type Stats struct {
	AvatarID  string `json:"avatarId" bson:"_id"`
	Followers int64  `json:"followers" bson:"followers"`
	Following int64  `json:"following" bson:"following"`
	Posts     int64  `json:"posts" bson:"posts"`
	Likes     int64  `json:"likes" bson:"likes"`
}

// BlockRecord 表示 BlockerID 屏蔽了 BlockedID，显式删除前一直有效。
type BlockRecord struct {
	BlockerID string    `json:"blockerId" bson:"blocker_id"`
	BlockedID string    `json:"blockedId" bson:"blocked_id"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// Involves 判断 a 与 b 之间是否存在该屏蔽关系（任一方向）。
func (b BlockRecord) Involves(a, other string) bool {
	return (b.BlockerID == a && b.BlockedID == other) ||
		(b.BlockerID == other && b.BlockedID == a)
}

// Counterpart 返回关系中 id 的另一方，id 不在关系中时返回空字符串。
func (b BlockRecord) Counterpart(id string) string {
	switch id {
	case b.BlockerID:
		return b.BlockedID
	case b.BlockedID:
		return b.BlockerID
	default:
		return ""
	}
}

// MuteRecord 表示 MuterID 静音了 MutedID。Duration 为 0 表示无限期。
type MuteRecord struct {
	MuterID  string        `json:"muterId" bson:"muter_id"`
	MutedID  string        `json:"mutedId" bson:"muted_id"`
	MutedAt  time.Time     `json:"mutedAt" bson:"muted_at"`
	Duration time.Duration `json:"duration,omitempty" bson:"duration,omitempty"`
}

// Indefinite 判断是否为无限期静音。
func (m MuteRecord) Indefinite() bool {
	return m.Duration <= 0
}

// ExpiresAt 返回过期时间，无限期静音返回零值。
func (m MuteRecord) ExpiresAt() time.Time {
	if m.Indefinite() {
		return time.Time{}
	}
	return m.MutedAt.Add(m.Duration)
}

// Active 判断静音在 now 是否仍然生效。mutedAt + duration < now 时失效。
func (m MuteRecord) Active(now time.Time) bool {
	if m.Indefinite() {
		return true
	}
	return !m.ExpiresAt().Before(now)
}
