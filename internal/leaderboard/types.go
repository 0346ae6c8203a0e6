// Package leaderboard holds the core data model and the shared
// performance/ELO store described by the live pipeline: author
// identities, performance points, ELO ratings, and the ranked tables
// that get diffed and broadcast to websocket subscribers.
package leaderboard

import (
	"encoding/json"
	"fmt"
	"math"
)

// Platform identifies which chat source an AuthorId came from.
type Platform string

const (
	PlatformTwitch  Platform = "twitch"
	PlatformDiscord Platform = "discord"
	PlatformB2      Platform = "b2"
)

// AuthorId identifies a chat author on a specific platform. Identity is
// the (Platform, ID) pair; ids from distinct platforms never collide
// even if the raw ID string happens to match.
type AuthorId struct {
	Platform Platform
	ID       string
}

// NewTwitchAuthor, NewDiscordAuthor and NewB2Author construct an AuthorId
// for the given platform.
func NewTwitchAuthor(id string) AuthorId  { return AuthorId{Platform: PlatformTwitch, ID: id} }
func NewDiscordAuthor(id string) AuthorId { return AuthorId{Platform: PlatformDiscord, ID: id} }
func NewB2Author(id string) AuthorId      { return AuthorId{Platform: PlatformB2, ID: id} }

// Less orders AuthorId lexicographically by (platform, id), used as the
// deterministic tie-break for ELO ordering.
func (a AuthorId) Less(b AuthorId) bool {
	if a.Platform != b.Platform {
		return a.Platform < b.Platform
	}
	return a.ID < b.ID
}

type authorIdWire struct {
	Platform Platform `json:"platform"`
	ID       string   `json:"id"`
}

// MarshalJSON reproduces the serde `#[serde(tag = "platform", content = "id")]`
// wire shape: {"platform":"twitch","id":"..."}.
func (a AuthorId) MarshalJSON() ([]byte, error) {
	return json.Marshal(authorIdWire{Platform: a.Platform, ID: a.ID})
}

func (a *AuthorId) UnmarshalJSON(data []byte) error {
	var wire authorIdWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Platform {
	case PlatformTwitch, PlatformDiscord, PlatformB2:
	default:
		return fmt.Errorf("leaderboard: unknown author platform %q", wire.Platform)
	}
	a.Platform = wire.Platform
	a.ID = wire.ID
	return nil
}

// LeaderboardName is an opaque, non-empty, stable leaderboard identifier.
type LeaderboardName string

// PerformancePoints is a finite, non-negative contribution from one
// message, summed per author per leaderboard. It forms a monoid under
// addition with identity zero.
type PerformancePoints struct {
	value float32
}

// ZeroPerformance is the additive identity.
var ZeroPerformance = PerformancePoints{value: 0}

// NewPerformancePoints validates value and rejects NaN, infinities, and
// negatives.
func NewPerformancePoints(value float32) (PerformancePoints, error) {
	if !isFinite(value) {
		return PerformancePoints{}, fmt.Errorf("leaderboard: performance points not finite: %v", value)
	}
	if value < 0 {
		return PerformancePoints{}, fmt.Errorf("leaderboard: performance points negative: %v", value)
	}
	return PerformancePoints{value: value}, nil
}

// MustPerformancePoints panics on invalid input; only for compile-time
// constant call sites (tests, scoring systems emitting literal scores).
func MustPerformancePoints(value float32) PerformancePoints {
	p, err := NewPerformancePoints(value)
	if err != nil {
		panic(err)
	}
	return p
}

// Get returns the underlying float32.
func (p PerformancePoints) Get() float32 { return p.value }

// Add returns p + other. Both operands are already validated, so the
// sum is never negative or NaN; a sum beyond the float32 range becomes
// +Inf, which Add does not check.
func (p PerformancePoints) Add(other PerformancePoints) PerformancePoints {
	return PerformancePoints{value: p.value + other.value}
}

func (p PerformancePoints) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value)
}

func (p *PerformancePoints) UnmarshalJSON(data []byte) error {
	var v float32
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewPerformancePoints(v)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Elo is a finite rating. The constructor rejects non-finite values —
// an infinite ELO would poison ranking order, which is a hard
// correctness invariant, not a recoverable input error.
type Elo struct {
	value float32
}

// NewElo validates value and rejects NaN/infinities.
func NewElo(value float32) (Elo, error) {
	if !isFinite(value) {
		return Elo{}, fmt.Errorf("leaderboard: elo not finite: %v", value)
	}
	return Elo{value: value}, nil
}

// MustElo panics on non-finite input; used at call sites where a
// non-finite value is a programmer bug, e.g. recording a freshly
// computed rating in the ELO processor.
func MustElo(value float32) Elo {
	e, err := NewElo(value)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Elo) Get() float32 { return e.value }

func (e Elo) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.value)
}

func (e *Elo) UnmarshalJSON(data []byte) error {
	var v float32
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewElo(v)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// LeaderboardEloEntry pairs an author with their rating on one
// leaderboard.
type LeaderboardEloEntry struct {
	AuthorId AuthorId `json:"author_id"`
	Elo      Elo      `json:"elo"`
}

// Equal compares two entries structurally, by (author, elo).
func (e LeaderboardEloEntry) Equal(other LeaderboardEloEntry) bool {
	return e.AuthorId == other.AuthorId && e.Elo.Get() == other.Elo.Get()
}

// LeaderboardElos is an ordered, duplicate-free ranking, canonically
// sorted by Elo descending.
type LeaderboardElos []LeaderboardEloEntry

// LeaderboardPosition is a zero-based index into a LeaderboardElos.
type LeaderboardPosition int

// LeaderboardEloChanges is the sparse position-keyed delta between two
// consecutive snapshots; positions absent from the map are implicitly
// unchanged. Serialized with string-keyed positions, since JSON object
// keys must be strings.
type LeaderboardEloChanges map[LeaderboardPosition]LeaderboardEloEntry

func (c LeaderboardEloChanges) MarshalJSON() ([]byte, error) {
	wire := make(map[string]LeaderboardEloEntry, len(c))
	for pos, entry := range c {
		wire[fmt.Sprintf("%d", pos)] = entry
	}
	return json.Marshal(wire)
}

func (c *LeaderboardEloChanges) UnmarshalJSON(data []byte) error {
	var wire map[string]LeaderboardEloEntry
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := make(LeaderboardEloChanges, len(wire))
	for key, entry := range wire {
		var pos int
		if _, err := fmt.Sscanf(key, "%d", &pos); err != nil {
			return fmt.Errorf("leaderboard: invalid position key %q: %w", key, err)
		}
		out[LeaderboardPosition(pos)] = entry
	}
	*c = out
	return nil
}

// LeaderboardsChanges maps leaderboard name to its sparse delta.
type LeaderboardsChanges map[LeaderboardName]LeaderboardEloChanges

// OutgoingMessage is the tagged union sent to websocket subscribers,
// matching the wire shape {"type":"...","data":{...}}.
type OutgoingMessage struct {
	InitialLeaderboards *InitialLeaderboardsData `json:"-"`
	Changes             *ChangesData             `json:"-"`
}

type InitialLeaderboardsData struct {
	Leaderboards map[LeaderboardName]LeaderboardElos `json:"leaderboards"`
}

type ChangesData struct {
	Changes LeaderboardsChanges `json:"changes"`
}

func NewInitialLeaderboardsMessage(leaderboards map[LeaderboardName]LeaderboardElos) OutgoingMessage {
	return OutgoingMessage{InitialLeaderboards: &InitialLeaderboardsData{Leaderboards: leaderboards}}
}

func NewChangesMessage(changes LeaderboardsChanges) OutgoingMessage {
	return OutgoingMessage{Changes: &ChangesData{Changes: changes}}
}

func (m OutgoingMessage) MarshalJSON() ([]byte, error) {
	switch {
	case m.InitialLeaderboards != nil:
		return json.Marshal(struct {
			Type string                  `json:"type"`
			Data InitialLeaderboardsData `json:"data"`
		}{Type: "initial_leaderboards", Data: *m.InitialLeaderboards})
	case m.Changes != nil:
		return json.Marshal(struct {
			Type string      `json:"type"`
			Data ChangesData `json:"data"`
		}{Type: "changes", Data: *m.Changes})
	default:
		return nil, fmt.Errorf("leaderboard: empty OutgoingMessage")
	}
}

func (m *OutgoingMessage) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	switch envelope.Type {
	case "initial_leaderboards":
		var d InitialLeaderboardsData
		if err := json.Unmarshal(envelope.Data, &d); err != nil {
			return err
		}
		*m = OutgoingMessage{InitialLeaderboards: &d}
	case "changes":
		var d ChangesData
		if err := json.Unmarshal(envelope.Data, &d); err != nil {
			return err
		}
		*m = OutgoingMessage{Changes: &d}
	default:
		return fmt.Errorf("leaderboard: unknown outgoing message type %q", envelope.Type)
	}
	return nil
}
