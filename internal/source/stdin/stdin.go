// Package stdin implements a minimal pipeline.Source for local
// development and demos: it decodes newline-delimited JSON chat events
// from an io.Reader (typically os.Stdin) into message.Message values.
// Real platform adapters (Twitch IRC, Discord gateway, Bilibili live)
// are out of scope for this repository and are expected to implement
// the same pipeline.Source[message.Message] interface.
package stdin

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"go.uber.org/zap"

	"live-elo/internal/message"
)

// Event is the wire shape of one newline-delimited JSON input record.
type Event struct {
	Platform  string `json:"platform"`
	AuthorID  string `json:"author_id"`
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

// Source reads Events from an underlying reader line by line, decoding
// each into a message.Message. It implements pipeline.Source[message.Message].
type Source struct {
	scanner *bufio.Scanner
	logger  *zap.Logger

	lines chan string
	done  chan struct{}
}

// New wraps r as a line-buffered pipeline.Source, starting a background
// goroutine that reads lines so Next can select on ctx cancellation.
func New(r io.Reader, logger *zap.Logger) *Source {
	s := &Source{
		scanner: bufio.NewScanner(r),
		logger:  logger,
		lines:   make(chan string, 64),
		done:    make(chan struct{}),
	}
	go s.readLines()
	return s
}

func (s *Source) readLines() {
	defer close(s.lines)
	for s.scanner.Scan() {
		select {
		case s.lines <- s.scanner.Text():
		case <-s.done:
			return
		}
	}
}

// Next decodes the next non-blank line into a Message, skipping lines
// that fail to parse (logged at Warn). Returns ok == false once the
// underlying reader is exhausted or ctx is cancelled.
func (s *Source) Next(ctx context.Context) (message.Message, bool) {
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				return message.Message{}, false
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			m, ok := s.decode(line)
			if !ok {
				continue
			}
			return m, true
		case <-ctx.Done():
			return message.Message{}, false
		}
	}
}

func (s *Source) decode(line string) (message.Message, bool) {
	var event Event
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		if s.logger != nil {
			s.logger.Warn("stdin source: malformed event, skipping", zap.Error(err))
		}
		return message.Message{}, false
	}

	switch event.Platform {
	case "twitch":
		return message.NewTwitch(message.TwitchPayload{AuthorID: event.AuthorID, Text: event.Text}), true
	case "discord":
		return message.NewDiscord(message.DiscordPayload{AuthorID: event.AuthorID, ChannelID: event.ChannelID, Text: event.Text}), true
	case "b2":
		return message.NewB2(message.B2Payload{AuthorID: event.AuthorID, Text: event.Text}), true
	default:
		if s.logger != nil {
			s.logger.Warn("stdin source: unknown platform, skipping", zap.String("platform", event.Platform))
		}
		return message.Message{}, false
	}
}

// Close signals the background reader goroutine to stop.
func (s *Source) Close(context.Context) {
	close(s.done)
}
