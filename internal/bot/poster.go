package bot

import (
	"errors"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

var errBotNotReady = errors.New("bot: not started yet")

// lazyPoster defers the bot reference until the telegram runtime exists. The
// publisher is constructed before the bot, so it posts through this handle.
type lazyPoster struct {
	bot atomic.Pointer[tele.Bot]
}

func (p *lazyPoster) set(b *tele.Bot) { p.bot.Store(b) }

func (p *lazyPoster) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	b := p.bot.Load()
	if b == nil {
		return nil, errBotNotReady
	}
	return b.Send(to, what, opts...)
}

func (p *lazyPoster) SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error) {
	b := p.bot.Load()
	if b == nil {
		return nil, errBotNotReady
	}
	return b.SendAlbum(to, a, opts...)
}
