package apperrors

import (
	"errors"

	"github.com/palemoky/catch-the-ten/internal/protocol"
)

// GameError 游戏错误（房间和对局共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newGameError(code int) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	// 加入房间
	ErrRoomFull           = newGameError(protocol.ErrCodeRoomFull)
	ErrGameAlreadyStarted = newGameError(protocol.ErrCodeGameStarted)

	// 开始游戏
	ErrRoomNotFound     = newGameError(protocol.ErrCodeRoomNotFound)
	ErrNotEnoughPlayers = newGameError(protocol.ErrCodeNotEnoughPlayers)

	// 出牌
	ErrGameNotActive  = newGameError(protocol.ErrCodeGameNotActive)
	ErrNotSeated      = newGameError(protocol.ErrCodeNotSeated)
	ErrNotYourTurn    = newGameError(protocol.ErrCodeNotYourTurn)
	ErrCardNotHeld    = newGameError(protocol.ErrCodeCardNotHeld)
	ErrMustFollowSuit = newGameError(protocol.ErrCodeMustFollowSuit)

	ErrNotInRoom = newGameError(protocol.ErrCodeNotInRoom)
)

// Code 提取错误码，非 GameError 返回 ErrCodeUnknown
func Code(err error) int {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}
	return protocol.ErrCodeUnknown
}
