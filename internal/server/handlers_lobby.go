package server

import (
	"github.com/jkwon/parlor/internal/core/bytes"
	"github.com/jkwon/parlor/internal/game"
	"github.com/jkwon/parlor/internal/packets"
	"github.com/jkwon/parlor/internal/transport"
)

func (s *Server) handleLobbyList(f transport.Frame) {
	response := &packets.LobbyListResponseBody{}

	u := s.user(f)
	if u == nil || u.Domain() != game.DomainLoggedIn {
		response.ErrorCode = packets.ErrLobbyInvalidDomain
		s.send(f.SessionIndex, f.SessionSeq, packets.LobbyListResponse, response)
		return
	}

	for i, lobby := range s.lobbies.Lobbies() {
		if i >= packets.MaxLobbyListEntries {
			break
		}
		response.Lobbies[i] = packets.LobbyListEntry{
			LobbyIndex: int16(lobby.Index()),
			UserCount:  int16(lobby.UserCount()),
		}
		response.LobbyCount++
	}
	s.send(f.SessionIndex, f.SessionSeq, packets.LobbyListResponse, response)
}

func (s *Server) handleLobbyEnter(f transport.Frame) {
	respond := func(code packets.ErrorCode, lobby *game.Lobby) {
		response := &packets.LobbyEnterResponseBody{ErrorCode: code}
		if lobby != nil {
			response.MaxUserCount = int16(lobby.MaxUsers())
			response.MaxRoomCount = int16(lobby.RoomCount())
			response.UserCount = int16(lobby.UserCount())
		}
		s.send(f.SessionIndex, f.SessionSeq, packets.LobbyEnterResponse, response)
	}

	u := s.user(f)
	if u == nil || u.Domain() != game.DomainLoggedIn {
		respond(packets.ErrLobbyInvalidDomain, nil)
		return
	}
	if len(f.Body) < packets.LobbyEnterRequestSize {
		s.network.ForceClose(f.SessionIndex, f.SessionSeq, "malformed lobby enter request")
		return
	}

	var request packets.LobbyEnterRequestBody
	bytes.StructFromBytes(f.Body, &request)

	lobby := s.lobbies.Lobby(int(request.LobbyIndex))
	if lobby == nil {
		respond(packets.ErrLobbyInvalidIndex, nil)
		return
	}
	if code := lobby.Enter(u); code != packets.ErrNone {
		respond(code, nil)
		return
	}

	s.logger.Debugf("[SRV] user %s entered lobby %d", u.ID(), lobby.Index())
	respond(packets.ErrNone, lobby)

	notify := &packets.LobbyEnterNotifyBody{}
	copy(notify.UserID[:], u.ID())
	data, _ := bytes.BytesFromStruct(notify)
	lobby.Broadcast(packets.LobbyEnterNotify, data, u.Index())
}

func (s *Server) handleLobbyLeave(f transport.Frame) {
	respond := func(code packets.ErrorCode) {
		s.send(f.SessionIndex, f.SessionSeq, packets.LobbyLeaveResponse,
			&packets.LobbyLeaveResponseBody{ErrorCode: code})
	}

	u := s.user(f)
	if u == nil || u.Domain() != game.DomainInLobby {
		respond(packets.ErrLobbyInvalidDomain)
		return
	}

	lobby := s.lobbies.Lobby(u.LobbyIndex())
	if lobby == nil {
		respond(packets.ErrLobbyInvalidIndex)
		return
	}

	s.departLobby(u, lobby)
	respond(packets.ErrNone)
}

// departLobby removes the user and tells everyone still on the lobby floor.
// Shared by the explicit leave request and the disconnect cascade.
func (s *Server) departLobby(u *game.User, lobby *game.Lobby) {
	userID := u.ID()
	if code := lobby.Leave(u.Index()); code != packets.ErrNone {
		s.logger.Warnf("[SRV] user %s not in lobby %d on leave: error(%d)", userID, lobby.Index(), code)
		return
	}

	notify := &packets.LobbyLeaveNotifyBody{}
	copy(notify.UserID[:], userID)
	data, _ := bytes.BytesFromStruct(notify)
	lobby.Broadcast(packets.LobbyLeaveNotify, data, u.Index())
}
