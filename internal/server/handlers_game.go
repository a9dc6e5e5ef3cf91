package server

import (
	"time"

	"github.com/jkwon/parlor/internal/core/bytes"
	"github.com/jkwon/parlor/internal/game"
	"github.com/jkwon/parlor/internal/packets"
	"github.com/jkwon/parlor/internal/transport"
)

func (s *Server) handleMasterGameStart(f transport.Frame) {
	respond := func(code packets.ErrorCode) {
		s.send(f.SessionIndex, f.SessionSeq, packets.RoomMasterGameStartResponse,
			&packets.RoomMasterGameStartResponseBody{ErrorCode: code})
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
	if !room.IsMaster(u.Index()) {
		respond(packets.ErrRoomNotMaster)
		return
	}

	players := make([]int, 0, room.UserCount())
	for _, member := range room.Members() {
		players = append(players, member.Index())
	}
	if code := room.Game().Start(players); code != packets.ErrNone {
		respond(code)
		return
	}

	s.logger.Infof("[SRV] user %s started a match in room %d", u.ID(), room.Index())
	respond(packets.ErrNone)

	// Every player, master included, must now confirm readiness.
	room.Broadcast(packets.RoomMasterGameStartNotify, nil, -1)
}

func (s *Server) handleGameStartConfirm(f transport.Frame) {
	respond := func(code packets.ErrorCode) {
		s.send(f.SessionIndex, f.SessionSeq, packets.RoomGameStartResponse,
			&packets.RoomGameStartResponseBody{ErrorCode: code})
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

	allConfirmed, code := room.Game().Confirm(u.Index())
	if code != packets.ErrNone {
		respond(code)
		return
	}
	respond(packets.ErrNone)

	notify := &packets.RoomGameStartNotifyBody{}
	copy(notify.UserID[:], u.ID())
	data, _ := bytes.BytesFromStruct(notify)
	room.Broadcast(packets.RoomGameStartNotify, data, u.Index())

	if allConfirmed {
		room.Game().Begin(time.Now().Add(s.config.SelectTimeout()))
		s.logger.Infof("[SRV] match underway in room %d", room.Index())
		room.Broadcast(packets.GameBeginNotify, nil, -1)
	}
}

func (s *Server) handleGameSelect(f transport.Frame) {
	respond := func(code packets.ErrorCode) {
		s.send(f.SessionIndex, f.SessionSeq, packets.GameSelectResponse,
			&packets.GameSelectResponseBody{ErrorCode: code})
	}

	u := s.user(f)
	if u == nil || u.Domain() != game.DomainInRoom {
		respond(packets.ErrRoomInvalidDomain)
		return
	}
	if len(f.Body) < packets.GameSelectRequestSize {
		s.network.ForceClose(f.SessionIndex, f.SessionSeq, "malformed game select request")
		return
	}

	room := s.roomOf(u)
	if room == nil {
		respond(packets.ErrRoomInvalidIndex)
		return
	}

	var request packets.GameSelectRequestBody
	bytes.StructFromBytes(f.Body, &request)

	allSelected, code := room.Game().Select(u.Index(), game.Hand(request.Hand))
	if code != packets.ErrNone {
		respond(code)
		return
	}
	respond(packets.ErrNone)

	if allSelected {
		s.resolveGame(room)
	}
}

// resolveGame settles a match from whatever hands are in, announces the
// result to the whole room, and returns the room's game to idle.
func (s *Server) resolveGame(room *game.Room) {
	winnerIndex, draw := room.Game().Result()

	result := &packets.GameResultNotifyBody{}
	if draw {
		result.Draw = 1
		s.logger.Infof("[SRV] match in room %d ended in a draw", room.Index())
	} else {
		for _, member := range room.Members() {
			if member.Index() == winnerIndex {
				copy(result.WinnerID[:], member.ID())
				s.logger.Infof("[SRV] user %s won the match in room %d", member.ID(), room.Index())
				break
			}
		}
	}

	data, _ := bytes.BytesFromStruct(result)
	room.Broadcast(packets.GameResultNotify, data, -1)
	room.Game().Reset()
}

// sweepGameDeadlines force-resolves matches whose selection window has
// closed. Players who never picked forfeit.
func (s *Server) sweepGameDeadlines(now time.Time) {
	for _, lobby := range s.lobbies.Lobbies() {
		for i := 0; i < lobby.RoomCount(); i++ {
			room := lobby.Room(i)
			if room.Game().DeadlineExceeded(now) {
				s.logger.Infof("[SRV] selection deadline passed in room %d", room.Index())
				s.resolveGame(room)
			}
		}
	}
}
