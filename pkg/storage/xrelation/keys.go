package xrelation

import (
	"fmt"
	"strings"
)

// memberSep 分隔过期索引成员中的静音者与被静音者。
const memberSep = "\x1f"

type keyspace struct {
	prefix string
}

// blocksOut 屏蔽者的 hash：被屏蔽者 -> 创建时间（毫秒）。
func (k keyspace) blocksOut(blockerID string) string {
	return k.prefix + "blk:out:" + blockerID
}

// blocksIn 被屏蔽者的 hash：屏蔽者 -> 创建时间（毫秒）。
func (k keyspace) blocksIn(blockedID string) string {
	return k.prefix + "blk:in:" + blockedID
}

// mutes 静音者的 hash：被静音者 -> 记录 JSON。
func (k keyspace) mutes(muterID string) string {
	return k.prefix + "mute:" + muterID
}

// muteExpiry 有期限静音的过期索引，score 为过期时间（毫秒）。
func (k keyspace) muteExpiry() string {
	return k.prefix + "mute:expiry"
}

func expiryMember(muterID, mutedID string) string {
	return muterID + memberSep + mutedID
}

func splitExpiryMember(member string) (muterID, mutedID string, err error) {
	muterID, mutedID, ok := strings.Cut(member, memberSep)
	if !ok || muterID == "" || mutedID == "" {
		return "", "", fmt.Errorf("%w: expiry member %q", ErrCorruptRecord, member)
	}
	return muterID, mutedID, nil
}
