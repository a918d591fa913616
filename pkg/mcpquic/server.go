// Package mcpquic carries MCP JSON-RPC over a single bidirectional QUIC
// stream. The client opens the stream, writes the magic preamble, then both
// sides exchange newline-delimited JSON messages.
package mcpquic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hazyhaar/entitycorrect/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
)

// Handler handles individual MCP-over-QUIC connections without owning a listener.
// The chassis hands it connections that negotiated ALPNProtocolMCP.
type Handler struct {
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewHandler creates an MCP connection handler for use with chassis demuxing.
func NewHandler(mcpSrv *server.MCPServer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{mcpServer: mcpSrv, logger: logger}
}

// ServeConn runs one MCP session over the first stream of conn. It returns
// when the client closes the stream, a protocol limit is hit or ctx ends.
func (h *Handler) ServeConn(ctx context.Context, conn *quic.Conn) {
	logger := h.logger.With("remote", conn.RemoteAddr().String())

	stream, err := h.handshake(ctx, conn)
	if err != nil {
		logger.Warn("MCP handshake rejected", "error", err)
		return
	}
	defer stream.Close()

	sess := newSession("quic_"+uuid.NewString()[:8], stream)
	logger = logger.With("session", sess.id)
	if err := h.mcpServer.RegisterSession(ctx, sess); err != nil {
		logger.Error("MCP session register failed", "error", err)
		return
	}
	defer h.mcpServer.UnregisterSession(ctx, sess.id)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx = h.mcpServer.WithContext(kit.WithTransport(ctx, "mcp_quic"), sess)
	go sess.writeNotifications(ctx)

	logger.Info("MCP session started")
	n, err := h.serve(ctx, sess, bufio.NewReader(stream))
	switch {
	case errors.Is(err, ErrMessageTooLarge):
		logger.Warn("MCP message too large", "limit", MaxMessageSize)
		stream.CancelRead(StreamErrorMessageTooLarge)
	case err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil:
		logger.Error("MCP session failed", "error", err)
	}
	logger.Info("MCP session ended", "messages", n)
}

// handshake accepts the client stream and checks its preamble.
func (h *Handler) handshake(ctx context.Context, conn *quic.Conn) (*quic.Stream, error) {
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		conn.CloseWithError(ConnErrorProtocolViolation, "stream accept failed")
		return nil, err
	}
	if err := ValidateMagicBytes(stream); err != nil {
		stream.CancelWrite(StreamErrorProtocolConfusion)
		stream.CancelRead(StreamErrorProtocolConfusion)
		conn.CloseWithError(ConnErrorProtocolViolation, "invalid magic bytes")
		return nil, err
	}
	return stream, nil
}

// serve answers newline-delimited JSON-RPC messages until the reader fails.
// It returns the number of messages handled.
func (h *Handler) serve(ctx context.Context, sess *session, r *bufio.Reader) (int, error) {
	n := 0
	for {
		line, err := readLine(r, MaxMessageSize)
		if err != nil {
			return n, err
		}
		if len(line) == 0 {
			continue
		}
		n++

		response := h.mcpServer.HandleMessage(ctx, json.RawMessage(line))
		if response == nil {
			continue
		}
		data, err := json.Marshal(response)
		if err != nil {
			h.logger.Error("MCP marshal failed", "session", sess.id, "error", err)
			continue
		}
		if err := sess.write(append(data, '\n')); err != nil {
			return n, err
		}
	}
}

// session implements server.ClientSession for a single QUIC connection.
// Responses and notifications share one stream, so writes are serialized.
type session struct {
	id            string
	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool
	mu            sync.Mutex
	w             io.Writer
}

func newSession(id string, w io.Writer) *session {
	return &session{
		id:            id,
		notifications: make(chan mcp.JSONRPCNotification, 100),
		w:             w,
	}
}

func (s *session) SessionID() string                                   { return s.id }
func (s *session) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.notifications }
func (s *session) Initialize()                                         { s.initialized.Store(true) }
func (s *session) Initialized() bool                                   { return s.initialized.Load() }

func (s *session) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(data)
	return err
}

func (s *session) writeNotifications(ctx context.Context) {
	for {
		select {
		case notif := <-s.notifications:
			data, err := json.Marshal(notif)
			if err != nil {
				continue
			}
			_ = s.write(append(data, '\n'))
		case <-ctx.Done():
			return
		}
	}
}
