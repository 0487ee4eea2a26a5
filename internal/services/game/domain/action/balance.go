package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/flatline/internal/services/game/domain/player"
)

// Faction is a network node's allegiance.
type Faction string

const (
	FactionAlly    Faction = "ally"
	FactionNeutral Faction = "neutral"
	FactionEnemy   Faction = "enemy"
)

// Target is an attackable node.
type Target struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Faction   Faction `json:"faction"`
	Defense   int     `json:"defense"`
	RewardMin int     `json:"reward_min"`
	RewardMax int     `json:"reward_max"`
	Contested bool    `json:"contested,omitempty"`
}

// BotModel is a deployable bot blueprint.
type BotModel struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Class  string `json:"class"`
	Damage int    `json:"damage"`
	Speed  int    `json:"speed"`
	Cost   int    `json:"cost"`
}

// AttackBalance tunes attack.launch.
type AttackBalance struct {
	// LoadCap rejects attacks once server load reaches it.
	LoadCap    int `json:"load_cap"`
	BaseChance int `json:"base_chance"`
	BotBonus   int `json:"bot_bonus"`
	MinChance  int `json:"min_chance"`
	MaxChance  int `json:"max_chance"`
	// ContestedPenalty is added to the defense of contested nodes.
	ContestedPenalty int `json:"contested_penalty"`
	FailFirewallMin  int `json:"fail_firewall_min"`
	FailFirewallMax  int `json:"fail_firewall_max"`
	FailLoadMin      int `json:"fail_load_min"`
	FailLoadMax      int `json:"fail_load_max"`
}

// FirewallBalance tunes firewall.craft.
type FirewallBalance struct {
	Credits   int `json:"credits"`
	Fragments int `json:"fragments"`
	Boost     int `json:"boost"`
}

// VirusBalance tunes virus.wave.start.
type VirusBalance struct {
	SeverityMin int `json:"severity_min"`
	SeverityMax int `json:"severity_max"`
	// Mitigation is the percentage of firewall integrity subtracted from severity.
	Mitigation int `json:"mitigation"`
	// BotLossSeverity destroys one deployed bot when severity reaches it.
	BotLossSeverity int `json:"bot_loss_severity"`
	Salvage         int `json:"salvage"`
}

// Balance is every tuning number the deciders use.
type Balance struct {
	Start    player.State    `json:"start"`
	Attack   AttackBalance   `json:"attack"`
	Firewall FirewallBalance `json:"firewall"`
	Virus    VirusBalance    `json:"virus"`
	MaxBots  int             `json:"max_bots"`
	Targets  []Target        `json:"targets"`
	Bots     []BotModel      `json:"bots"`
}

// DefaultBalance returns the built-in tuning.
func DefaultBalance() Balance {
	return Balance{
		Start: player.Default(),
		Attack: AttackBalance{
			LoadCap:          90,
			BaseChance:       55,
			BotBonus:         5,
			MinChance:        5,
			MaxChance:        95,
			ContestedPenalty: 10,
			FailFirewallMin:  4,
			FailFirewallMax:  12,
			FailLoadMin:      6,
			FailLoadMax:      15,
		},
		Firewall: FirewallBalance{Credits: 600, Fragments: 15, Boost: 15},
		Virus: VirusBalance{
			SeverityMin:     20,
			SeverityMax:     95,
			Mitigation:      60,
			BotLossSeverity: 80,
			Salvage:         5,
		},
		MaxBots: 6,
		Targets: []Target{
			{ID: "target-quicktest", Name: "TARGET-Quicktest", Faction: FactionNeutral, Defense: 20, RewardMin: 50, RewardMax: 150},
			{ID: "node-alpha", Name: "NODE-Alpha", Faction: FactionAlly},
			{ID: "node-beta", Name: "NODE-Beta", Faction: FactionAlly},
			{ID: "core-prime", Name: "CORE-Prime", Faction: FactionAlly},
			{ID: "backup-1", Name: "BACKUP-1", Faction: FactionAlly},
			{ID: "safe-zone", Name: "SAFE-Zone", Faction: FactionAlly},
			{ID: "hub-7734", Name: "HUB-7734", Faction: FactionNeutral, Defense: 35, RewardMin: 120, RewardMax: 260, Contested: true},
			{ID: "data-node", Name: "DATA-Node", Faction: FactionNeutral, Defense: 30, RewardMin: 100, RewardMax: 220},
			{ID: "free-port", Name: "FREE-Port", Faction: FactionNeutral, Defense: 25, RewardMin: 80, RewardMax: 180},
			{ID: "relay-99", Name: "RELAY-99", Faction: FactionNeutral, Defense: 40, RewardMin: 140, RewardMax: 300, Contested: true},
			{ID: "trade-hub", Name: "TRADE-Hub", Faction: FactionNeutral, Defense: 45, RewardMin: 160, RewardMax: 340},
			{ID: "red-server", Name: "RED-Server", Faction: FactionEnemy, Defense: 60, RewardMin: 300, RewardMax: 600},
			{ID: "dark-hub", Name: "DARK-Hub", Faction: FactionEnemy, Defense: 65, RewardMin: 350, RewardMax: 700},
			{ID: "node-666", Name: "NODE-666", Faction: FactionEnemy, Defense: 75, RewardMin: 450, RewardMax: 900},
			{ID: "void-core", Name: "VOID-Core", Faction: FactionEnemy, Defense: 85, RewardMin: 600, RewardMax: 1200},
		},
		Bots: []BotModel{
			{ID: "striker-x", Name: "STRIKER-X", Class: "ASSAULT", Damage: 450, Speed: 8, Cost: 300},
			{ID: "defender-7", Name: "DEFENDER-7", Class: "TANK", Damage: 200, Speed: 4, Cost: 250},
			{ID: "scout-alpha", Name: "SCOUT-ALPHA", Class: "RECON", Damage: 150, Speed: 12, Cost: 150},
			{ID: "hacker-99", Name: "HACKER-99", Class: "SUPPORT", Damage: 100, Speed: 6, Cost: 400},
		},
	}
}

// Validate checks that the balance is internally consistent.
func (b Balance) Validate() error {
	if err := b.Start.Validate(); err != nil {
		return fmt.Errorf("start state: %w", err)
	}
	a := b.Attack
	if a.MinChance < 0 || a.MaxChance > 100 || a.MinChance > a.MaxChance {
		return fmt.Errorf("attack chance bounds invalid: %d..%d", a.MinChance, a.MaxChance)
	}
	if a.LoadCap <= 0 || a.LoadCap > player.TelemetryMax {
		return fmt.Errorf("attack load cap out of range: %d", a.LoadCap)
	}
	if a.FailFirewallMin < 0 || a.FailFirewallMin > a.FailFirewallMax || a.FailLoadMin < 0 || a.FailLoadMin > a.FailLoadMax {
		return errors.New("attack failure ranges invalid")
	}
	if a.FailFirewallMax == 0 && a.FailLoadMax == 0 {
		return errors.New("attack failure must cost something")
	}
	if b.Firewall.Credits < 0 || b.Firewall.Fragments < 0 || b.Firewall.Boost <= 0 {
		return errors.New("firewall craft values invalid")
	}
	v := b.Virus
	if v.SeverityMin < 0 || v.SeverityMin > v.SeverityMax || v.Mitigation < 0 || v.Salvage < 0 {
		return errors.New("virus values invalid")
	}
	if b.MaxBots <= 0 {
		return errors.New("max_bots must be positive")
	}

	seen := make(map[string]struct{}, len(b.Targets))
	for _, t := range b.Targets {
		id := normalizeID(t.ID)
		if id == "" {
			return errors.New("target id is required")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate target %q", t.ID)
		}
		seen[id] = struct{}{}
		switch t.Faction {
		case FactionAlly, FactionNeutral, FactionEnemy:
		default:
			return fmt.Errorf("target %q has unknown faction %q", t.ID, t.Faction)
		}
		if t.Faction != FactionAlly && (t.RewardMin <= 0 || t.RewardMin > t.RewardMax) {
			return fmt.Errorf("target %q reward range invalid", t.ID)
		}
	}

	seen = make(map[string]struct{}, len(b.Bots))
	for _, m := range b.Bots {
		id := normalizeID(m.ID)
		if id == "" {
			return errors.New("bot model id is required")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate bot model %q", m.ID)
		}
		seen[id] = struct{}{}
		if m.Cost < 0 {
			return fmt.Errorf("bot model %q has negative cost", m.ID)
		}
	}
	return nil
}

// BotModel looks up a bot blueprint by id, ignoring case.
func (b Balance) BotModel(id string) (BotModel, bool) {
	id = normalizeID(id)
	for _, m := range b.Bots {
		if normalizeID(m.ID) == id {
			return m, true
		}
	}
	return BotModel{}, false
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
