package xpage_test

import (
	"errors"
	"fmt"

	"github.com/omeyang/quanta/pkg/social/xpage"
)

func Example() {
	tracker := xpage.New()
	key := xpage.Key{ViewerID: "viewer-1", Scope: xpage.AvatarScope("nova")}

	ticket, err := tracker.RequestNextPage(key, 20)
	if err != nil {
		panic(err)
	}

	// 同一范围加载中，第二个请求被拒绝
	_, err = tracker.RequestNextPage(key, 20)
	fmt.Println(errors.Is(err, xpage.ErrAlreadyLoading))

	// 上游返回了满页
	if err := tracker.CompletePage(ticket, 20); err != nil {
		panic(err)
	}
	st := tracker.State(key)
	fmt.Println(st.Offset, st.HasMore, st.IsLoading)

	// Output:
	// true
	// 20 true false
}
