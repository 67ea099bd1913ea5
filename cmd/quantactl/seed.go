package main

import (
	"fmt"
	"time"

	"github.com/omeyang/quanta/pkg/social/xstore"
)

// 演示数据规模
const (
	demoPosts = 120
)

var (
	demoAuthors = []string{"alice", "bob", "carol", "dave", "erin", "frank"}
	demoEpoch   = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
)

// seedDemo 生成确定性的演示数据：作者轮流发帖，每分钟一条，最新的在前。
func seedDemo() *xstore.Memory {
	mem := xstore.NewMemory()
	posts := make([]xstore.FeedItem, 0, demoPosts)
	perAuthor := map[string]int64{}
	for i := range demoPosts {
		author := demoAuthors[i%len(demoAuthors)]
		perAuthor[author]++
		posts = append(posts, xstore.FeedItem{
			PostID:    fmt.Sprintf("post-%03d", i+1),
			AuthorID:  author,
			Content:   fmt.Sprintf("%s 的第 %d 条帖子", author, perAuthor[author]),
			CreatedAt: demoEpoch.Add(-time.Duration(i) * time.Minute),
			Likes:     int64(i % 17),
			Views:     int64(i * 7),
		})
	}
	mem.AddPosts(posts...)

	for i, author := range demoAuthors {
		mem.SetProfile(xstore.Profile{
			AvatarID:    author,
			DisplayName: author,
			UpdatedAt:   demoEpoch,
		})
		mem.SetStats(xstore.Stats{
			AvatarID:  author,
			Followers: int64(100 * (i + 1)),
			Following: int64(10 * (i + 1)),
			Posts:     perAuthor[author],
		})
	}
	return mem
}
