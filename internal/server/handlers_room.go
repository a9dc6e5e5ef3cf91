package server

import (
	"github.com/jkwon/parlor/internal/core/bytes"
	"github.com/jkwon/parlor/internal/game"
	"github.com/jkwon/parlor/internal/packets"
	"github.com/jkwon/parlor/internal/transport"
)

// roomOf resolves a user's room through their lobby back-reference.
func (s *Server) roomOf(u *game.User) *game.Room {
	lobby := s.lobbies.Lobby(u.LobbyIndex())
	if lobby == nil {
		return nil
	}
	return lobby.Room(u.RoomIndex())
}

func (s *Server) handleRoomEnter(f transport.Frame) {
	respond := func(code packets.ErrorCode, roomIndex int16) {
		s.send(f.SessionIndex, f.SessionSeq, packets.RoomEnterResponse,
			&packets.RoomEnterResponseBody{ErrorCode: code, RoomIndex: roomIndex})
	}

	u := s.user(f)
	if u == nil || u.Domain() != game.DomainInLobby {
		respond(packets.ErrRoomInvalidDomain, -1)
		return
	}
	if len(f.Body) < packets.RoomEnterRequestSize {
		s.network.ForceClose(f.SessionIndex, f.SessionSeq, "malformed room enter request")
		return
	}

	var request packets.RoomEnterRequestBody
	bytes.StructFromBytes(f.Body, &request)

	lobby := s.lobbies.Lobby(u.LobbyIndex())

	var room *game.Room
	if request.IsCreate != 0 {
		if request.RoomIndex < 0 {
			room = lobby.AvailableRoom()
			if room == nil {
				respond(packets.ErrRoomNoneAvailable, -1)
				return
			}
		} else {
			room = lobby.Room(int(request.RoomIndex))
			if room == nil {
				respond(packets.ErrRoomInvalidIndex, -1)
				return
			}
		}

		title := bytes.ConvertFromUtf16(request.RoomTitle[:])
		if code := room.Create(title); code != packets.ErrNone {
			respond(code, -1)
			return
		}
		s.logger.Debugf("[SRV] user %s created room %d (%q) in lobby %d",
			u.ID(), room.Index(), title, lobby.Index())
	} else {
		room = lobby.Room(int(request.RoomIndex))
		if room == nil {
			respond(packets.ErrRoomInvalidIndex, -1)
			return
		}
	}

	// Snapshot before entering so the roster push excludes the newcomer.
	existing := append([]*game.User(nil), room.Members()...)

	if code := room.Enter(u); code != packets.ErrNone {
		respond(code, -1)
		return
	}

	respond(packets.ErrNone, int16(room.Index()))

	// The newcomer learns who was already in the room; everyone else learns
	// about the newcomer.
	for _, member := range existing {
		notify := &packets.RoomEnterNotifyBody{UserIndex: int16(member.Index())}
		copy(notify.UserID[:], member.ID())
		data, _ := bytes.BytesFromStruct(notify)
		if err := s.network.Send(f.SessionIndex, f.SessionSeq, packets.RoomEnterNotify, data); err != nil {
			s.logger.Warnf("[SRV] dropping room roster to session %d: %v", f.SessionIndex, err)
		}
	}

	notify := &packets.RoomEnterNotifyBody{UserIndex: int16(u.Index())}
	copy(notify.UserID[:], u.ID())
	data, _ := bytes.BytesFromStruct(notify)
	room.Broadcast(packets.RoomEnterNotify, data, u.Index())
}

func (s *Server) handleRoomLeave(f transport.Frame) {
	respond := func(code packets.ErrorCode) {
		s.send(f.SessionIndex, f.SessionSeq, packets.RoomLeaveResponse,
			&packets.RoomLeaveResponseBody{ErrorCode: code})
	}

	u := s.user(f)
	if u == nil || u.Domain() != game.DomainInRoom {
		respond(packets.ErrRoomInvalidDomain)
		return
	}

	room := s.roomOf(u)
	if room == nil {
		respond(packets.ErrRoomInvalidIndex)
		return
	}

	s.departRoom(u, room)
	respond(packets.ErrNone)
}

// departRoom removes the user from the room and notifies the remaining
// members. A match the leaver was playing in resolves as a forfeit win for
// the opponent. Shared by the explicit leave request and the disconnect
// cascade.
func (s *Server) departRoom(u *game.User, room *game.Room) {
	g := room.Game()

	var forfeitWinner *game.User
	if g.State() == game.GameStatePlaying && g.Participates(u.Index()) {
		for _, member := range room.Members() {
			if member.Index() != u.Index() && g.Participates(member.Index()) {
				forfeitWinner = member
				break
			}
		}
	}

	userID := u.ID()
	if code := room.Leave(u.Index()); code != packets.ErrNone {
		s.logger.Warnf("[SRV] user %s not in room %d on leave: error(%d)", userID, room.Index(), code)
		return
	}

	notify := &packets.RoomLeaveNotifyBody{}
	copy(notify.UserID[:], userID)
	data, _ := bytes.BytesFromStruct(notify)
	room.Broadcast(packets.RoomLeaveNotify, data, u.Index())

	if forfeitWinner != nil {
		s.logger.Infof("[SRV] user %s abandoned the match in room %d; %s wins by forfeit",
			userID, room.Index(), forfeitWinner.ID())
		result := &packets.GameResultNotifyBody{}
		copy(result.WinnerID[:], forfeitWinner.ID())
		resultData, _ := bytes.BytesFromStruct(result)
		room.Broadcast(packets.GameResultNotify, resultData, -1)
	}
}

func (s *Server) handleRoomChat(f transport.Frame) {
	respond := func(code packets.ErrorCode) {
		s.send(f.SessionIndex, f.SessionSeq, packets.RoomChatResponse,
			&packets.RoomChatResponseBody{ErrorCode: code})
	}

	u := s.user(f)
	if u == nil || u.Domain() != game.DomainInRoom {
		respond(packets.ErrRoomInvalidDomain)
		return
	}
	if len(f.Body) < packets.RoomChatRequestSize {
		s.network.ForceClose(f.SessionIndex, f.SessionSeq, "malformed room chat request")
		return
	}

	var request packets.RoomChatRequestBody
	bytes.StructFromBytes(f.Body, &request)
	if request.MsgLength < 0 || int(request.MsgLength) > packets.ChatMsgLength {
		s.network.ForceClose(f.SessionIndex, f.SessionSeq, "chat length out of range")
		return
	}

	room := s.roomOf(u)
	if room == nil {
		respond(packets.ErrRoomInvalidIndex)
		return
	}

	respond(packets.ErrNone)

	notify := &packets.RoomChatNotifyBody{MsgLength: request.MsgLength, Msg: request.Msg}
	copy(notify.UserID[:], u.ID())
	data, _ := bytes.BytesFromStruct(notify)
	// The sender hears their own chat back; that is the delivery receipt.
	room.Broadcast(packets.RoomChatNotify, data, -1)
}
