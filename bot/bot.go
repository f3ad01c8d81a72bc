// Package bot exposes the analyze operation over NATS request/reply, for
// deployments where the broker sits behind a message bus instead of (or in
// addition to) HTTP.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/katabroker/api"
	"github.com/domino14/katabroker/broker"
)

type Bot struct {
	an            api.Analyzer
	defaultVisits int
	timeout       time.Duration

	nc  *nats.Conn
	sub *nats.Subscription
}

func NewBot(an api.Analyzer, defaultVisits int, timeout time.Duration) *Bot {
	return &Bot{an: an, defaultVisits: defaultVisits, timeout: timeout}
}

func errorResponse(message string, err error) []byte {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	data, _ := json.Marshal(map[string]string{"error": msg})
	return data
}

// handle runs one request. The message data is the same JSON body the HTTP
// layer accepts; the reply is the engine payload verbatim, or an error
// object.
func (bot *Bot) handle(data []byte) []byte {
	var body api.AnalyzeBody
	if err := json.Unmarshal(data, &body); err != nil {
		return errorResponse("could not parse request", err)
	}
	if body.Visits == 0 {
		body.Visits = bot.defaultVisits
	}
	if body.Visits < 0 {
		return errorResponse("visits must be positive", nil)
	}
	ctx, cancel := context.WithTimeout(context.Background(), bot.timeout)
	defer cancel()
	resp, err := bot.an.AnalyzeRequest(ctx, broker.Request{
		Moves:         body.Moves,
		Visits:        body.Visits,
		InitialPlayer: body.InitialPlayer,
		InitialStones: body.InitialStones,
		Komi:          body.Komi,
		Rules:         body.Rules,
		BoardSize:     body.BoardSize,
	})
	if err != nil {
		return errorResponse("analysis failed", err)
	}
	return resp.Raw
}

// Listen connects to NATS and subscribes on channel. It returns once the
// subscription is live; handling happens on NATS's callback goroutines.
func (bot *Bot) Listen(natsURL, channel string) error {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return err
	}
	bot.nc = nc
	sub, err := nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Int("bytes", len(m.Data)).Msg("bot-recv")
		m.Respond(bot.handle(m.Data))
	})
	if err != nil {
		return err
	}
	bot.sub = sub
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Str("channel", channel).Msg("bot-listening")
	return nil
}

// Close drains the subscription and closes the connection.
func (bot *Bot) Close() {
	if bot.sub != nil {
		bot.sub.Drain()
	}
	if bot.nc != nil {
		bot.nc.Close()
	}
}
