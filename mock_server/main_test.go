package mock_server_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/brojonat/chatagent/mock_server"
	"github.com/gorilla/websocket"
	"github.com/matryer/is"
)

func waitReady(t *testing.T, url string) *http.Response {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		res, err := http.Get(url)
		if err == nil {
			return res
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server never came up")
	return nil
}

func TestPing(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mock_server.ListenAndServe(ctx, nil, "127.0.0.1:18095")

	res := waitReady(t, "http://127.0.0.1:18095/ping")
	defer res.Body.Close()
	is.Equal(res.StatusCode, http.StatusOK)
	is.Equal(res.Header.Get("Content-Type"), "application/json")
}

func TestEcho(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mock_server.ListenAndServe(ctx, nil, "127.0.0.1:18096")
	res := waitReady(t, "http://127.0.0.1:18096/ping")
	res.Body.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://127.0.0.1:18096/ws", nil)
	is.NoErr(err)
	defer conn.Close()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"envelope", `{"route":"chat","content":"hi"}`, `{"route":"chat","content":"hi"}`},
		{"no route", `{"content":"hi"}`, `{"content":"hi"}`},
		{"raw frame", `not json`, `not json`},
	}
	for _, tc := range tests {
		is.NoErr(conn.WriteMessage(websocket.TextMessage, []byte(tc.in)))
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, b, err := conn.ReadMessage()
		is.NoErr(err)
		is.Equal(string(b), tc.want) // tc.name
	}
}
