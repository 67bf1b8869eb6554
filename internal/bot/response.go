package bot

import "videobot-backend/internal/platform/telegram"

// Response is the single outcome of one inbound command or callback.
// The dispatcher maps every service result, including failures, to
// exactly one Response so the turn always completes.
type Response interface {
	isResponse()
}

type TextMessage struct {
	Text     string
	Keyboard *telegram.InlineKeyboardMarkup
}

type VideoMessage struct {
	FileID   string
	Caption  string
	Keyboard *telegram.InlineKeyboardMarkup
}

// EditMessage edits the message the callback originated from. A non-empty
// FileID swaps the media, otherwise the text is replaced.
type EditMessage struct {
	Text     string
	FileID   string
	Caption  string
	Keyboard *telegram.InlineKeyboardMarkup
}

// NoOp sends nothing; a non-empty Notice is surfaced as a callback answer.
type NoOp struct {
	Notice string
}

func (TextMessage) isResponse()  {}
func (VideoMessage) isResponse() {}
func (EditMessage) isResponse()  {}
func (NoOp) isResponse()         {}
