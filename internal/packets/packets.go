// Package packets defines the wire protocol spoken between parlor and its
// clients: a 5 byte little-endian header followed by a fixed-layout body.
package packets

import "encoding/binary"

const (
	// HeaderSize is the size of the Header in its wire form. TotalSize in the
	// header includes these bytes.
	HeaderSize = 5

	// MaxPacketBodySize bounds the declared body length of any frame. A peer
	// declaring more than this is treated as corrupt or hostile.
	MaxPacketBodySize = 1024
)

// Header precedes every frame on the wire.
type Header struct {
	TotalSize uint16
	ID        uint16
	Reserved  uint8
}

// ParseHeader decodes a Header from the first HeaderSize bytes of data.
// The caller must have checked that len(data) >= HeaderSize.
func ParseHeader(data []byte) Header {
	return Header{
		TotalSize: binary.LittleEndian.Uint16(data[0:2]),
		ID:        binary.LittleEndian.Uint16(data[2:4]),
		Reserved:  data[4],
	}
}

// PutHeader encodes h into the first HeaderSize bytes of data.
func PutHeader(data []byte, h Header) {
	binary.LittleEndian.PutUint16(data[0:2], h.TotalSize)
	binary.LittleEndian.PutUint16(data[2:4], h.ID)
	data[4] = h.Reserved
}

// Packet ids. The session connected/closed ids are synthetic: they are
// enqueued by the transport layer and never appear on the wire.
const (
	SessionConnected uint16 = 2
	SessionClosed    uint16 = 3

	LoginRequest  uint16 = 201
	LoginResponse uint16 = 202

	LobbyListRequest  uint16 = 211
	LobbyListResponse uint16 = 212

	LobbyEnterRequest  uint16 = 213
	LobbyEnterResponse uint16 = 214
	LobbyEnterNotify   uint16 = 215

	LobbyLeaveRequest  uint16 = 216
	LobbyLeaveResponse uint16 = 217
	LobbyLeaveNotify   uint16 = 218

	RoomEnterRequest  uint16 = 231
	RoomEnterResponse uint16 = 232
	RoomEnterNotify   uint16 = 233

	RoomLeaveRequest  uint16 = 234
	RoomLeaveResponse uint16 = 235
	RoomLeaveNotify   uint16 = 236

	RoomChatRequest  uint16 = 237
	RoomChatResponse uint16 = 238
	RoomChatNotify   uint16 = 239

	RoomMasterGameStartRequest  uint16 = 240
	RoomMasterGameStartResponse uint16 = 241
	RoomMasterGameStartNotify   uint16 = 242

	RoomGameStartRequest  uint16 = 243
	RoomGameStartResponse uint16 = 244
	RoomGameStartNotify   uint16 = 245

	GameSelectRequest  uint16 = 246
	GameSelectResponse uint16 = 247
	GameResultNotify   uint16 = 248
	GameBeginNotify    uint16 = 249

	DevEchoRequest  uint16 = 250
	DevEchoResponse uint16 = 251
)

var packetNames = map[uint16]string{
	SessionConnected:            "session connected",
	SessionClosed:               "session closed",
	LoginRequest:                "login request",
	LoginResponse:               "login response",
	LobbyListRequest:            "lobby list request",
	LobbyListResponse:           "lobby list response",
	LobbyEnterRequest:           "lobby enter request",
	LobbyEnterResponse:          "lobby enter response",
	LobbyEnterNotify:            "lobby enter notify",
	LobbyLeaveRequest:           "lobby leave request",
	LobbyLeaveResponse:          "lobby leave response",
	LobbyLeaveNotify:            "lobby leave notify",
	RoomEnterRequest:            "room enter request",
	RoomEnterResponse:           "room enter response",
	RoomEnterNotify:             "room enter notify",
	RoomLeaveRequest:            "room leave request",
	RoomLeaveResponse:           "room leave response",
	RoomLeaveNotify:             "room leave notify",
	RoomChatRequest:             "room chat request",
	RoomChatResponse:            "room chat response",
	RoomChatNotify:              "room chat notify",
	RoomMasterGameStartRequest:  "room master game start request",
	RoomMasterGameStartResponse: "room master game start response",
	RoomMasterGameStartNotify:   "room master game start notify",
	RoomGameStartRequest:        "room game start request",
	RoomGameStartResponse:       "room game start response",
	RoomGameStartNotify:         "room game start notify",
	GameSelectRequest:           "game select request",
	GameSelectResponse:          "game select response",
	GameResultNotify:            "game result notify",
	GameBeginNotify:             "game begin notify",
	DevEchoRequest:              "dev echo request",
	DevEchoResponse:             "dev echo response",
}

// Name returns a human-readable name for a packet id, or "unknown" for ids
// this protocol version does not define.
func Name(id uint16) string {
	if name, ok := packetNames[id]; ok {
		return name
	}
	return "unknown"
}

// Fixed field sizes shared by the body structs below.
const (
	UserIDLength    = 16
	PasswordLength  = 16
	RoomTitleLength = 32 // 16 UTF-16LE code units
	ChatMsgLength   = 256
	EchoDataLength  = 256

	// MaxLobbyListEntries bounds the lobby list response regardless of the
	// configured lobby count.
	MaxLobbyListEntries = 16
)

// ErrorCode is carried in the first field of every response body.
type ErrorCode int16

const (
	ErrNone ErrorCode = 0

	ErrLoginUserPoolFull  ErrorCode = 101
	ErrLoginDuplicateID   ErrorCode = 102
	ErrSessionNotFound    ErrorCode = 103
	ErrLoginInvalidDomain ErrorCode = 104

	ErrLobbyInvalidDomain  ErrorCode = 111
	ErrLobbyInvalidIndex   ErrorCode = 112
	ErrLobbyFull           ErrorCode = 113
	ErrLobbyDuplicateEnter ErrorCode = 114
	ErrLobbyUserNotFound   ErrorCode = 115

	ErrRoomInvalidDomain    ErrorCode = 121
	ErrRoomInvalidIndex     ErrorCode = 122
	ErrRoomFull             ErrorCode = 123
	ErrRoomNoneAvailable    ErrorCode = 124
	ErrRoomUserNotFound     ErrorCode = 125
	ErrRoomNotMaster        ErrorCode = 126
	ErrRoomInvalidUserCount ErrorCode = 127
	ErrRoomAlreadyUsed      ErrorCode = 128
	ErrRoomDuplicateEnter   ErrorCode = 129

	ErrGameInvalidState     ErrorCode = 131
	ErrGameAlreadyConfirmed ErrorCode = 132
	ErrGameInvalidHand      ErrorCode = 133
	ErrGameAlreadySelected  ErrorCode = 134
)

type LoginRequestBody struct {
	UserID [UserIDLength]byte
	// Accepted but not validated; there is no account database.
	Password [PasswordLength]byte
}

type LoginResponseBody struct {
	ErrorCode ErrorCode
}

type LobbyListEntry struct {
	LobbyIndex int16
	UserCount  int16
}

type LobbyListResponseBody struct {
	ErrorCode  ErrorCode
	LobbyCount int16
	Lobbies    [MaxLobbyListEntries]LobbyListEntry
}

type LobbyEnterRequestBody struct {
	LobbyIndex int16
}

type LobbyEnterResponseBody struct {
	ErrorCode    ErrorCode
	MaxUserCount int16
	MaxRoomCount int16
	UserCount    int16
}

type LobbyEnterNotifyBody struct {
	UserID [UserIDLength]byte
}

type LobbyLeaveResponseBody struct {
	ErrorCode ErrorCode
}

type LobbyLeaveNotifyBody struct {
	UserID [UserIDLength]byte
}

type RoomEnterRequestBody struct {
	IsCreate  uint8
	RoomIndex int16
	// UTF-16LE, NUL padded. Only meaningful when IsCreate is set.
	RoomTitle [RoomTitleLength]byte
}

type RoomEnterResponseBody struct {
	ErrorCode ErrorCode
	RoomIndex int16
}

type RoomEnterNotifyBody struct {
	UserIndex int16
	UserID    [UserIDLength]byte
}

type RoomLeaveResponseBody struct {
	ErrorCode ErrorCode
}

type RoomLeaveNotifyBody struct {
	UserID [UserIDLength]byte
}

type RoomChatRequestBody struct {
	MsgLength int16
	// UTF-16LE. Only the first MsgLength bytes are meaningful.
	Msg [ChatMsgLength]byte
}

type RoomChatResponseBody struct {
	ErrorCode ErrorCode
}

type RoomChatNotifyBody struct {
	UserID    [UserIDLength]byte
	MsgLength int16
	Msg       [ChatMsgLength]byte
}

type RoomMasterGameStartResponseBody struct {
	ErrorCode ErrorCode
}

type RoomGameStartResponseBody struct {
	ErrorCode ErrorCode
}

type RoomGameStartNotifyBody struct {
	UserID [UserIDLength]byte
}

type GameSelectRequestBody struct {
	Hand uint8
}

type GameSelectResponseBody struct {
	ErrorCode ErrorCode
}

// GameResultNotifyBody reports the outcome of a round to every room member.
// Draw is set (and WinnerID zeroed) when both players picked the same hand or
// neither picked before the deadline.
type GameResultNotifyBody struct {
	Draw     uint8
	WinnerID [UserIDLength]byte
}

// Wire sizes of the fixed-layout request bodies, used to reject undersized
// frames before decoding.
const (
	LoginRequestSize      = UserIDLength + PasswordLength
	LobbyEnterRequestSize = 2
	RoomEnterRequestSize  = 1 + 2 + RoomTitleLength
	RoomChatRequestSize   = 2 + ChatMsgLength
	GameSelectRequestSize = 1
)
