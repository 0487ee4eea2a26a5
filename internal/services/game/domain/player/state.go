package player

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultUsername is used whenever no operator name has been chosen.
const DefaultUsername = "anon"

// TelemetryMin and TelemetryMax bound every server telemetry gauge.
const (
	TelemetryMin = 0
	TelemetryMax = 100
)

// BotStatus is the lifecycle status of a bot.
type BotStatus string

const (
	BotIdle      BotStatus = "idle"
	BotDeployed  BotStatus = "deployed"
	BotDestroyed BotStatus = "destroyed"
)

// Valid reports whether s is a known status.
func (s BotStatus) Valid() bool {
	switch s {
	case BotIdle, BotDeployed, BotDestroyed:
		return true
	}
	return false
}

// Server holds the telemetry gauges of the operator's server, each in [0,100].
type Server struct {
	CPU      int `json:"cpu"`
	RAM      int `json:"ram"`
	Firewall int `json:"firewall"`
	Load     int `json:"load"`
}

// Bot is one unit of the operator's fleet.
type Bot struct {
	ID     string    `json:"id"`
	Status BotStatus `json:"status"`
	Model  string    `json:"model,omitempty"`
}

// State is the whole operator record.
type State struct {
	Username  string `json:"username"`
	Credits   int    `json:"credits"`
	Fragments int    `json:"fragments"`
	Server    Server `json:"server"`
	Bots      []Bot  `json:"bots"`
}

// Default returns the record of a fresh operator.
func Default() State {
	return State{
		Username:  DefaultUsername,
		Credits:   2450,
		Fragments: 87,
		Server: Server{
			CPU:      45,
			RAM:      38,
			Firewall: 60,
			Load:     12,
		},
		Bots: []Bot{},
	}
}

// Clamp limits v to the telemetry range.
func Clamp(v int) int {
	if v < TelemetryMin {
		return TelemetryMin
	}
	if v > TelemetryMax {
		return TelemetryMax
	}
	return v
}

// Clamp returns s with every gauge limited to [0,100].
func (s Server) Clamp() Server {
	return Server{
		CPU:      Clamp(s.CPU),
		RAM:      Clamp(s.RAM),
		Firewall: Clamp(s.Firewall),
		Load:     Clamp(s.Load),
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	clone := s
	clone.Bots = make([]Bot, len(s.Bots))
	copy(clone.Bots, s.Bots)
	return clone
}

// Normalize repairs a decoded or hand-built state so it satisfies Validate:
// blank usernames become the default, resources floor at zero, gauges clamp,
// and bots with missing or duplicate ids are dropped (first one wins).
func (s State) Normalize() State {
	out := s.Clone()
	out.Username = strings.TrimSpace(out.Username)
	if out.Username == "" {
		out.Username = DefaultUsername
	}
	out.Credits = max(out.Credits, 0)
	out.Fragments = max(out.Fragments, 0)
	out.Server = out.Server.Clamp()

	seen := make(map[string]struct{}, len(out.Bots))
	bots := make([]Bot, 0, len(out.Bots))
	for _, bot := range out.Bots {
		bot.ID = strings.TrimSpace(bot.ID)
		if bot.ID == "" {
			continue
		}
		if _, dup := seen[bot.ID]; dup {
			continue
		}
		if !bot.Status.Valid() {
			bot.Status = BotIdle
		}
		seen[bot.ID] = struct{}{}
		bots = append(bots, bot)
	}
	out.Bots = bots
	return out
}

// Validate reports the first broken invariant, if any.
func (s State) Validate() error {
	if strings.TrimSpace(s.Username) == "" {
		return errors.New("username is required")
	}
	if s.Credits < 0 {
		return fmt.Errorf("credits must be non-negative, got %d", s.Credits)
	}
	if s.Fragments < 0 {
		return fmt.Errorf("fragments must be non-negative, got %d", s.Fragments)
	}
	gauges := []struct {
		name  string
		value int
	}{
		{"cpu", s.Server.CPU},
		{"ram", s.Server.RAM},
		{"firewall", s.Server.Firewall},
		{"load", s.Server.Load},
	}
	for _, g := range gauges {
		if g.value < TelemetryMin || g.value > TelemetryMax {
			return fmt.Errorf("server %s out of range: %d", g.name, g.value)
		}
	}
	seen := make(map[string]struct{}, len(s.Bots))
	for _, bot := range s.Bots {
		if bot.ID == "" {
			return errors.New("bot id is required")
		}
		if _, dup := seen[bot.ID]; dup {
			return fmt.Errorf("duplicate bot id %q", bot.ID)
		}
		if !bot.Status.Valid() {
			return fmt.Errorf("bot %q has unknown status %q", bot.ID, bot.Status)
		}
		seen[bot.ID] = struct{}{}
	}
	return nil
}

// Bot returns the bot with id.
func (s State) Bot(id string) (Bot, bool) {
	for _, bot := range s.Bots {
		if bot.ID == id {
			return bot, true
		}
	}
	return Bot{}, false
}

// CountBots returns how many bots have status.
func (s State) CountBots(status BotStatus) int {
	n := 0
	for _, bot := range s.Bots {
		if bot.Status == status {
			n++
		}
	}
	return n
}

// ActiveBots counts bots that still occupy a fleet slot.
func (s State) ActiveBots() int {
	return len(s.Bots) - s.CountBots(BotDestroyed)
}

// Flatlined reports whether the server's firewall has collapsed.
func (s State) Flatlined() bool {
	return s.Server.Firewall <= TelemetryMin
}
