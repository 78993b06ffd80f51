package mock_server

// Package mock_server provides a local echo server for chat clients. Every
// message a client sends is written back to that client in an envelope. This
// is mainly useful for testing client implementations.

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/brojonat/chatagent/chatclient"
	"github.com/brojonat/server-tools/stools"
	bwebsocket "github.com/brojonat/websocket"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const DefaultAddr = "127.0.0.1:8888"

// Echo returns the handler that writes each client message back to its
// sender. Frames that are not chat envelopes are echoed unchanged.
func Echo(logger *slog.Logger) bwebsocket.MessageHandler {
	return func(c bwebsocket.Client, b []byte) {
		var m chatclient.OutboundMessage
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		if err := dec.Decode(&m); err != nil {
			logger.Error("error deserializing message from client", "error", err.Error(), "payload", string(b))
			c.Write(b)
			return
		}
		bs, err := m.JSON()
		if err != nil {
			logger.Error("error serializing reply", "error", err.Error())
			return
		}
		logger.Debug("echoing client message", "route", m.Route, "payload", string(bs))
		c.Write(bs)
	}
}

func ListenAndServe(ctx context.Context, logger *slog.Logger, addr string, handlers ...bwebsocket.MessageHandler) error {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
		logger = logger.With("service", "test-server")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  512,
		WriteBufferSize: 512,
	}
	upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	r := mux.NewRouter()

	handlers = append(handlers, Echo(logger))

	r.Handle("/ping", stools.AdaptHandler(
		stools.HandlePing(),
		healthMode(logger),
	)).Methods("GET")
	r.Handle("/ws", bwebsocket.ServeWS(
		upgrader,
		bwebsocket.DefaultSetupConn,
		bwebsocket.NewClient,
		func(ctx context.Context, cf context.CancelFunc, c bwebsocket.Client) { logger.Debug("client registered") }, // registration func
		func(c bwebsocket.Client) { logger.Debug("client unregistered") },                                           // deregistration func
		30*time.Second,
		handlers))

	// run the server
	srvExit := make(chan error, 1)
	srv := http.Server{Addr: addr, Handler: r}
	go func() {
		srvExit <- srv.ListenAndServe()
	}()
	logger.Info("listening", "addr", addr)

	// handle shutdown
	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-srvExit:
		return err
	}
}
