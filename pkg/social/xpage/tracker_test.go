package xpage

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var feedKey = Key{ViewerID: "v1", Scope: FeedScope()}

func TestTracker_RequestValidation(t *testing.T) {
	tr := New()

	for _, size := range []int{-1, MaxPageSize + 1} {
		_, err := tr.RequestNextPage(feedKey, size)
		assert.ErrorIs(t, err, ErrInvalidArgument, "size %d", size)
	}

	ticket, err := tr.RequestNextPage(feedKey, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, ticket.PageSize)
	assert.Equal(t, 0, ticket.Offset)

	_, err = tr.RequestNextPage(feedKey, 10)
	assert.ErrorIs(t, err, ErrAlreadyLoading)
}

func TestTracker_Monotonic(t *testing.T) {
	tr := New(WithDefaultPageSize(10))

	returned := []int{10, 10, 7}
	want := 0
	for _, n := range returned {
		ticket, err := tr.RequestNextPage(feedKey, 0)
		require.NoError(t, err)
		assert.Equal(t, want, ticket.Offset, "offset equals sum of previous unfiltered counts")
		require.NoError(t, tr.CompletePage(ticket, n))
		want += n
	}

	st := tr.State(feedKey)
	assert.Equal(t, 27, st.Offset)
	assert.False(t, st.HasMore, "short page means exhausted")
	assert.False(t, st.IsLoading)

	// hasMore=false 之后仍可请求
	ticket, err := tr.RequestNextPage(feedKey, 0)
	require.NoError(t, err)
	assert.Equal(t, 27, ticket.Offset)
	require.NoError(t, tr.CompletePage(ticket, 0))
}

func TestTracker_AbortKeepsOffset(t *testing.T) {
	tr := New()
	ticket, err := tr.RequestNextPage(feedKey, 20)
	require.NoError(t, err)
	require.NoError(t, tr.CompletePage(ticket, 20))

	ticket, err = tr.RequestNextPage(feedKey, 20)
	require.NoError(t, err)
	require.NoError(t, tr.Abort(ticket))

	st := tr.State(feedKey)
	assert.Equal(t, 20, st.Offset)
	assert.True(t, st.HasMore)
	assert.False(t, st.IsLoading)

	assert.ErrorIs(t, tr.Abort(ticket), ErrStaleTicket, "ticket already returned")
	assert.ErrorIs(t, tr.CompletePage(ticket, 5), ErrStaleTicket)
}

func TestTracker_ResetInvalidatesInFlight(t *testing.T) {
	tr := New()
	ticket, err := tr.RequestNextPage(feedKey, 20)
	require.NoError(t, err)
	require.NoError(t, tr.CompletePage(ticket, 20))

	inFlight, err := tr.RequestNextPage(feedKey, 20)
	require.NoError(t, err)
	tr.Reset(feedKey)

	assert.Equal(t, State{Offset: 0, PageSize: 20, HasMore: true}, tr.State(feedKey))
	assert.ErrorIs(t, tr.CompletePage(inFlight, 20), ErrStaleTicket)
	assert.Equal(t, 0, tr.State(feedKey).Offset, "discarded result must not move the cursor")

	fresh, err := tr.RequestNextPage(feedKey, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Offset)
	assert.ErrorIs(t, tr.Abort(inFlight), ErrStaleTicket)
	require.NoError(t, tr.Abort(fresh))
}

func TestTracker_ForgetInvalidatesInFlight(t *testing.T) {
	tr := New()
	old, err := tr.RequestNextPage(feedKey, 20)
	require.NoError(t, err)
	tr.Forget(feedKey)

	fresh, err := tr.RequestNextPage(feedKey, 20)
	require.NoError(t, err)
	assert.ErrorIs(t, tr.CompletePage(old, 20), ErrStaleTicket)
	require.NoError(t, tr.CompletePage(fresh, 3))
	assert.Equal(t, 3, tr.State(feedKey).Offset)
}

func TestTracker_ReturnedTicketCannotCompleteNextRequest(t *testing.T) {
	tr := New()

	first, err := tr.RequestNextPage(feedKey, 20)
	require.NoError(t, err)
	require.NoError(t, tr.CompletePage(first, 20))

	second, err := tr.RequestNextPage(feedKey, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, second.Offset)

	assert.ErrorIs(t, tr.CompletePage(first, 20), ErrStaleTicket)
	assert.ErrorIs(t, tr.Abort(first), ErrStaleTicket)
	assert.True(t, tr.State(feedKey).IsLoading)

	require.NoError(t, tr.CompletePage(second, 20))
	assert.Equal(t, 40, tr.State(feedKey).Offset)
}

func TestTracker_Complete(t *testing.T) {
	tr := New()
	ticket, err := tr.RequestNextPage(feedKey, 20)
	require.NoError(t, err)

	assert.ErrorIs(t, tr.Complete(ticket, -1, true), ErrInvalidArgument)
	require.NoError(t, tr.Complete(ticket, 22, true))
	assert.Equal(t, State{Offset: 22, PageSize: 20, HasMore: true}, tr.State(feedKey))
}

func TestTracker_ScopesAreIndependent(t *testing.T) {
	tr := New()
	avatarKey := Key{ViewerID: "v1", Scope: AvatarScope("nova")}
	otherViewer := Key{ViewerID: "v2", Scope: FeedScope()}

	a, err := tr.RequestNextPage(feedKey, 20)
	require.NoError(t, err)
	b, err := tr.RequestNextPage(avatarKey, 5)
	require.NoError(t, err)
	c, err := tr.RequestNextPage(otherViewer, 20)
	require.NoError(t, err)

	assert.Equal(t, Stats{Scopes: 3, Loading: 3}, tr.Stats())

	require.NoError(t, tr.CompletePage(b, 5))
	require.NoError(t, tr.CompletePage(a, 20))
	require.NoError(t, tr.Abort(c))

	assert.Equal(t, 20, tr.State(feedKey).Offset)
	assert.Equal(t, 5, tr.State(avatarKey).Offset)
	assert.Equal(t, 0, tr.State(otherViewer).Offset)
	assert.Equal(t, Stats{Scopes: 3}, tr.Stats())
	assert.Equal(t, "avatar:nova", avatarKey.Scope.String())
	assert.Equal(t, "feed", feedKey.Scope.String())
}

func TestTracker_ConcurrentRequestsExactlyOneWins(t *testing.T) {
	tr := New()

	const callers = 16
	var (
		wg      sync.WaitGroup
		wins    atomic.Int32
		loading atomic.Int32
		start   = make(chan struct{})
		tickets = make(chan Ticket, callers)
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ticket, err := tr.RequestNextPage(feedKey, 20)
			switch {
			case err == nil:
				wins.Add(1)
				tickets <- ticket
			case assert.ErrorIs(t, err, ErrAlreadyLoading):
				loading.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	close(tickets)

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(callers-1), loading.Load())

	for ticket := range tickets {
		require.NoError(t, tr.CompletePage(ticket, 20))
	}
	assert.Equal(t, 20, tr.State(feedKey).Offset, "exactly one page advance")
}
