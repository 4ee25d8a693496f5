package gameapi

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/jalvarol/checkers/internal/board"
)

const initialGame = `{"board":{"B2":{"isOccupied":true,"isKing":false,"color":"red"}},"turn":"red","status":"in_progress","winner":null,"message":"ok"}`

type recorded struct {
	method    string
	path      string
	body      string
	requestID string
	ctype     string
	custom    string
}

type testServer struct {
	mu    sync.Mutex
	calls []recorded
}

func (s *testServer) record(ctx *fasthttp.RequestCtx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, recorded{
		method:    string(ctx.Method()),
		path:      string(ctx.Path()),
		body:      string(ctx.PostBody()),
		requestID: string(ctx.Request.Header.Peek("X-Request-Id")),
		ctype:     string(ctx.Request.Header.ContentType()),
		custom:    string(ctx.Request.Header.Peek("X-Player")),
	})
}

func (s *testServer) Calls() []recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recorded(nil), s.calls...)
}

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, opts ...Option) (*Client, *testServer) {
	t.Helper()
	ts := &testServer{}
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		ts.record(ctx)
		handler(ctx)
	}}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	base := []Option{WithDialer(func(string) (net.Conn, error) { return ln.Dial() })}
	return NewClient("http://checkers.test/", append(base, opts...)...), ts
}

func respond(ctx *fasthttp.RequestCtx, status int, body string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(body)
}

func TestFetchGame(t *testing.T) {
	c, ts := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		respond(ctx, fasthttp.StatusOK, initialGame)
	}, WithHeaderProvider(func() map[string]string {
		return map[string]string{"X-Player": "p1", "X-Empty": " "}
	}))

	s, err := c.FetchGame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, board.Red, s.Turn)
	assert.True(t, s.IsMovableBy(board.MustPosition("B2"), board.Red))

	calls := ts.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "GET", calls[0].method)
	assert.Equal(t, "/game", calls[0].path)
	assert.Equal(t, "application/json", calls[0].ctype)
	assert.NotEmpty(t, calls[0].requestID)
	assert.Equal(t, "p1", calls[0].custom)
	assert.Equal(t, "http://checkers.test", c.BaseURL())
}

func TestSubmitMoveSendsCommand(t *testing.T) {
	c, ts := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		respond(ctx, fasthttp.StatusOK, `{"board":{"B2":{"isOccupied":false,"isKing":false,"color":""},"C3":{"isOccupied":true,"isKing":false,"color":"red"}},"turn":"black","status":"in_progress"}`)
	})

	s, err := c.SubmitMove(context.Background(), MoveCommand{Source: board.MustPosition("B2"), Destination: board.MustPosition("C3")})
	require.NoError(t, err)
	assert.Equal(t, board.Black, s.Turn)

	calls := ts.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "POST", calls[0].method)
	assert.Equal(t, "/game/move", calls[0].path)
	assert.JSONEq(t, `{"source":"B2","destination":"C3"}`, calls[0].body)
}

func TestSubmitMoveRejectedIsNotRetried(t *testing.T) {
	for _, status := range []int{fasthttp.StatusBadRequest, fasthttp.StatusInternalServerError} {
		c, ts := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
			respond(ctx, status, `{"error":"Invalid move"}`)
		}, WithRetry(3))

		_, err := c.SubmitMove(context.Background(), MoveCommand{Source: board.MustPosition("B2"), Destination: board.MustPosition("B3")})
		require.Error(t, err)
		code, ok := StatusCode(err)
		require.True(t, ok)
		assert.Equal(t, status, code)
		assert.Contains(t, err.Error(), "Invalid move")
		assert.Len(t, ts.Calls(), 1)
	}
}

func TestNewGamePostsEmptyObject(t *testing.T) {
	c, ts := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		respond(ctx, fasthttp.StatusOK, `{"board":{},"turn":"red","message":"Game reset"}`)
	})

	s, err := c.NewGame(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Concluded())
	calls := ts.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/game/new", calls[0].path)
	assert.JSONEq(t, `{}`, calls[0].body)
}

func TestFetchGameRetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	n := 0
	c, ts := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		mu.Lock()
		n++
		attempt := n
		mu.Unlock()
		if attempt < 3 {
			respond(ctx, fasthttp.StatusServiceUnavailable, "warming up")
			return
		}
		respond(ctx, fasthttp.StatusOK, initialGame)
	}, WithRetry(3))

	_, err := c.FetchGame(context.Background())
	require.NoError(t, err)
	assert.Len(t, ts.Calls(), 3)
}

func TestFetchGameDoesNotRetryClientErrors(t *testing.T) {
	c, ts := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		respond(ctx, fasthttp.StatusNotFound, "no game")
	}, WithRetry(3))

	_, err := c.FetchGame(context.Background())
	code, ok := StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, fasthttp.StatusNotFound, code)
	assert.Len(t, ts.Calls(), 1)
}

func TestFetchGameMalformed(t *testing.T) {
	c, _ := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		respond(ctx, fasthttp.StatusOK, `{"board":{"Z9":{}},"turn":"red"}`)
	})

	_, err := c.FetchGame(context.Background())
	assert.ErrorIs(t, err, board.ErrMalformedSnapshot)
	assert.NotErrorIs(t, err, ErrUnreachable)
}

func TestTimeoutIsUnreachable(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	c, _ := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		respond(ctx, fasthttp.StatusOK, initialGame)
	}, WithTimeout(50*time.Millisecond), WithRetry(1))

	started := time.Now()
	_, err := c.SubmitMove(context.Background(), MoveCommand{Source: board.MustPosition("B2"), Destination: board.MustPosition("C3")})
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Less(t, time.Since(started), time.Second)
}

func TestDialFailureIsUnreachable(t *testing.T) {
	c := NewClient("http://checkers.test", WithRetry(2), WithDialer(func(string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}))

	_, err := c.FetchGame(context.Background())
	assert.ErrorIs(t, err, ErrUnreachable)
	_, ok := StatusCode(err)
	assert.False(t, ok)
}

func TestCanceledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, ts := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		respond(ctx, fasthttp.StatusOK, initialGame)
	})

	_, err := c.FetchGame(ctx)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ts.Calls())
}

func TestCheckWinner(t *testing.T) {
	body := `{"status":"Game over","winner":"red"}`
	c, ts := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		respond(ctx, fasthttp.StatusOK, body)
	})

	out, err := c.CheckWinner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Outcome{Status: "Game over", Winner: board.Red}, out)
	assert.Equal(t, "/game/check-winner", ts.Calls()[0].path)

	body = `{"status":"In progress","winner":null}`
	out, err = c.CheckWinner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, board.NoColor, out.Winner)
}
