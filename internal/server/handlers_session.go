package server

import (
	"github.com/jkwon/parlor/internal/core/bytes"
	"github.com/jkwon/parlor/internal/game"
	"github.com/jkwon/parlor/internal/packets"
	"github.com/jkwon/parlor/internal/transport"
)

func (s *Server) handleSessionConnected(f transport.Frame) {
	s.logger.Debugf("[SRV] session %d connected (seq %d)", f.SessionIndex, f.SessionSeq)
	s.watcher.track(f.SessionIndex, f.SessionSeq)
}

// handleSessionClosed cascades a disconnect through whatever the user was
// doing: leave the room, leave the lobby, release the user slot. Closes for
// sessions that never logged in only need the watcher cleared.
func (s *Server) handleSessionClosed(f transport.Frame) {
	s.watcher.settle(f.SessionIndex, f.SessionSeq)

	u, code := s.users.Get(f.SessionIndex, f.SessionSeq)
	if code != packets.ErrNone {
		return
	}

	if u.Domain() == game.DomainInRoom {
		if room := s.roomOf(u); room != nil {
			s.departRoom(u, room)
		}
	}
	if u.Domain() == game.DomainInLobby {
		if lobby := s.lobbies.Lobby(u.LobbyIndex()); lobby != nil {
			s.departLobby(u, lobby)
		}
	}

	s.logger.Infof("[SRV] user %s logged out. session(%d)", u.ID(), f.SessionIndex)
	s.users.Remove(f.SessionIndex)
}

func (s *Server) handleLogin(f transport.Frame) {
	if len(f.Body) < packets.LoginRequestSize {
		s.network.ForceClose(f.SessionIndex, f.SessionSeq, "malformed login request")
		return
	}

	if s.user(f) != nil {
		s.send(f.SessionIndex, f.SessionSeq, packets.LoginResponse,
			&packets.LoginResponseBody{ErrorCode: packets.ErrLoginInvalidDomain})
		return
	}

	var request packets.LoginRequestBody
	bytes.StructFromBytes(f.Body, &request)
	userID := string(bytes.StripPadding(request.UserID[:]))

	u, code := s.users.Add(f.SessionIndex, f.SessionSeq, userID)
	if code != packets.ErrNone {
		s.send(f.SessionIndex, f.SessionSeq, packets.LoginResponse,
			&packets.LoginResponseBody{ErrorCode: code})
		return
	}

	s.watcher.settle(f.SessionIndex, f.SessionSeq)
	s.logger.Infof("[SRV] user %s logged in. session(%d) slot(%d)", u.ID(), f.SessionIndex, u.Index())
	s.send(f.SessionIndex, f.SessionSeq, packets.LoginResponse,
		&packets.LoginResponseBody{ErrorCode: packets.ErrNone})
}

// handleDevEcho mirrors the request body back verbatim. Development aid;
// requires no login.
func (s *Server) handleDevEcho(f transport.Frame) {
	if err := s.network.Send(f.SessionIndex, f.SessionSeq, packets.DevEchoResponse, f.Body); err != nil {
		s.logger.Warnf("[SRV] dropping echo to session %d: %v", f.SessionIndex, err)
	}
}
