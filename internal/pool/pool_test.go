package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcporter/internal/transport"
)

// fakeConn satisfies transport.Conn without dialing anything real.
type fakeConn struct {
	closed int32
}

func (c *fakeConn) Initialize(ctx context.Context) (*schema.InitializeResult, error) { return nil, nil }
func (c *fakeConn) ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error) {
	return nil, nil
}
func (c *fakeConn) CallTool(ctx context.Context, p *schema.CallToolRequestParams) (*schema.CallToolResult, error) {
	return nil, nil
}
func (c *fakeConn) ListResources(ctx context.Context, cursor *string) (*schema.ListResourcesResult, error) {
	return nil, nil
}
func (c *fakeConn) Close() error { atomic.StoreInt32(&c.closed, 1); return nil }

func TestPool_ConcurrentGet_DialsOnce(t *testing.T) {
	var dials int32
	conn := &fakeConn{}
	block := make(chan struct{})
	p := New(func(ctx context.Context, name string) (transport.Conn, error) {
		atomic.AddInt32(&dials, 1)
		<-block
		return conn, nil
	})

	var wg sync.WaitGroup
	results := make([]transport.Conn, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := p.Get(context.Background(), "github", false)
			require.NoError(t, err)
			results[i] = c
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(block)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&dials), "concurrent callers for the same name must share one dial")
	for _, r := range results {
		assert.Equal(t, transport.Conn(conn), r)
	}
}

func TestPool_SkipCache_NeverSharesOrStores(t *testing.T) {
	var dials int32
	p := New(func(ctx context.Context, name string) (transport.Conn, error) {
		atomic.AddInt32(&dials, 1)
		return &fakeConn{}, nil
	})

	_, err := p.Get(context.Background(), "github", true)
	require.NoError(t, err)
	_, err = p.Get(context.Background(), "github", true)
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&dials))
	assert.Empty(t, p.Names())
}

func TestPool_Get_EvictsOnError(t *testing.T) {
	var dials int32
	p := New(func(ctx context.Context, name string) (transport.Conn, error) {
		n := atomic.AddInt32(&dials, 1)
		if n == 1 {
			return nil, errors.New("boom")
		}
		return &fakeConn{}, nil
	})

	_, err := p.Get(context.Background(), "github", false)
	assert.Error(t, err)

	conn, err := p.Get(context.Background(), "github", false)
	require.NoError(t, err)
	assert.NotNil(t, conn)
	assert.EqualValues(t, 2, dials, "a failed dial must not be cached, so the next Get retries")
}

func TestPool_Close_ClosesAndForgets(t *testing.T) {
	conn := &fakeConn{}
	p := New(func(ctx context.Context, name string) (transport.Conn, error) {
		return conn, nil
	})

	_, err := p.Get(context.Background(), "github", false)
	require.NoError(t, err)

	require.NoError(t, p.Close("github"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&conn.closed))
	assert.Empty(t, p.Names())
}

func TestPool_Close_NoopForUnknownName(t *testing.T) {
	p := New(func(ctx context.Context, name string) (transport.Conn, error) {
		return &fakeConn{}, nil
	})
	assert.NoError(t, p.Close("ghost"))
}

func TestPool_CloseAll_ClosesEveryConnection(t *testing.T) {
	conns := map[string]*fakeConn{"a": {}, "b": {}}
	p := New(func(ctx context.Context, name string) (transport.Conn, error) {
		return conns[name], nil
	})

	_, err := p.Get(context.Background(), "a", false)
	require.NoError(t, err)
	_, err = p.Get(context.Background(), "b", false)
	require.NoError(t, err)

	require.NoError(t, p.CloseAll())
	for name, c := range conns {
		assert.EqualValues(t, 1, atomic.LoadInt32(&c.closed), "connection %q should be closed", name)
	}
	assert.Empty(t, p.Names())
}
