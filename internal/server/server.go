// Package server contains the lobby logic: a single goroutine drains the
// transport's frame queue and dispatches each frame through an immutable
// handler table. Domain state is only ever touched from that goroutine.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jkwon/parlor/internal/core"
	"github.com/jkwon/parlor/internal/core/bytes"
	"github.com/jkwon/parlor/internal/game"
	"github.com/jkwon/parlor/internal/packets"
	"github.com/jkwon/parlor/internal/transport"
)

// stateCheckInterval paces the housekeeping pass: login deadline sweeps and
// game selection deadline sweeps.
const stateCheckInterval = 100 * time.Millisecond

type Server struct {
	config  *core.Config
	logger  *logrus.Logger
	network *transport.Server

	users   *game.UserRegistry
	lobbies *game.LobbyRegistry
	watcher *loginWatcher

	handlers map[uint16]func(transport.Frame)
	ready    chan struct{}
}

func New(config *core.Config, logger *logrus.Logger) *Server {
	network := transport.NewServer(config, logger)

	lobbies := game.NewLobbyRegistry(
		config.Lobby.MaxLobbies,
		config.Lobby.MaxLobbyUsers,
		config.Lobby.MaxRoomsPerLobby,
		config.Lobby.MaxRoomUsers,
	)
	lobbies.SetNetwork(network, logger)

	s := &Server{
		config:  config,
		logger:  logger,
		network: network,
		users:   game.NewUserRegistry(config.MaxSessions),
		lobbies: lobbies,
		ready:   make(chan struct{}),
	}
	s.watcher = newLoginWatcher(config.Login.CheckEnabled, config.LoginTimeout(), s.onLoginExpired)

	// The handler table is built once and never mutated afterwards; dispatch
	// reads it without synchronization.
	s.handlers = map[uint16]func(transport.Frame){
		packets.SessionConnected: s.handleSessionConnected,
		packets.SessionClosed:    s.handleSessionClosed,

		packets.LoginRequest: s.handleLogin,

		packets.LobbyListRequest:  s.handleLobbyList,
		packets.LobbyEnterRequest: s.handleLobbyEnter,
		packets.LobbyLeaveRequest: s.handleLobbyLeave,

		packets.RoomEnterRequest: s.handleRoomEnter,
		packets.RoomLeaveRequest: s.handleRoomLeave,
		packets.RoomChatRequest:  s.handleRoomChat,

		packets.RoomMasterGameStartRequest: s.handleMasterGameStart,
		packets.RoomGameStartRequest:       s.handleGameStartConfirm,
		packets.GameSelectRequest:          s.handleGameSelect,

		packets.DevEchoRequest: s.handleDevEcho,
	}
	return s
}

// Run starts the transport and drains its frame queue until the context is
// canceled. It owns all domain state for its duration.
func (s *Server) Run(ctx context.Context) error {
	if err := s.network.Start(ctx); err != nil {
		return fmt.Errorf("error starting lobby transport: %w", err)
	}
	defer s.network.Shutdown()
	close(s.ready)

	ticker := time.NewTicker(stateCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("[SRV] shutting down (%d active users)", s.users.ActiveCount())
			return nil
		case frame := <-s.network.Frames():
			s.process(frame)
		case now := <-ticker.C:
			s.stateCheck(now)
		}
	}
}

// Ready is closed once the listener is accepting connections. Addr is only
// valid after Ready.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the transport's bound listener address.
func (s *Server) Addr() string {
	return s.network.Addr().String()
}

func (s *Server) process(frame transport.Frame) {
	handler, ok := s.handlers[frame.ID]
	if !ok {
		// Unknown ids are tolerated so old clients don't get disconnected
		// for probing newer features.
		s.logger.Warnf("[SRV] dropping unknown packet id %#04x from session %d",
			frame.ID, frame.SessionIndex)
		return
	}
	handler(frame)
}

func (s *Server) stateCheck(now time.Time) {
	s.watcher.sweep()
	s.sweepGameDeadlines(now)
}

// user resolves a frame to the user bound to its session, or nil when the
// session never logged in or the frame predates the slot's current occupant.
func (s *Server) user(f transport.Frame) *game.User {
	u, code := s.users.Get(f.SessionIndex, f.SessionSeq)
	if code != packets.ErrNone {
		return nil
	}
	return u
}

// send serializes a fixed-layout body struct and queues it. Frames for stale
// or saturated sessions are dropped; the disconnect path cleans up either way.
func (s *Server) send(sessionIndex int, sessionSeq uint64, id uint16, body interface{}) {
	var data []byte
	if body != nil {
		data, _ = bytes.BytesFromStruct(body)
	}
	if err := s.network.Send(sessionIndex, sessionSeq, id, data); err != nil {
		s.logger.Warnf("[SRV] dropping %s to session %d: %v", packets.Name(id), sessionIndex, err)
	}
}

func (s *Server) onLoginExpired(sessionIndex int, sessionSeq uint64) {
	s.logger.Infof("[SRV] session %d exceeded the login deadline", sessionIndex)
	s.network.ForceClose(sessionIndex, sessionSeq, "login timeout")
}
