package action

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/flatline/internal/platform/errors"
	"github.com/louisbranch/flatline/internal/services/game/domain/aggregate"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/event"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
)

// Decider resolves commands using one balance table and one random source.
type Decider struct {
	balance Balance
	catalog *Catalog
	rand    Rand
}

// NewDecider validates balance and returns a decider drawing from r.
func NewDecider(balance Balance, r Rand) (*Decider, error) {
	if err := balance.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		seed, err := NewSeed()
		if err != nil {
			return nil, fmt.Errorf("seed rng: %w", err)
		}
		r = NewRand(seed)
	}
	return &Decider{balance: balance, catalog: NewCatalog(balance.Targets), rand: r}, nil
}

// Balance returns the decider's tuning.
func (d *Decider) Balance() Balance {
	return d.balance
}

// Catalog returns the target catalog.
func (d *Decider) Catalog() *Catalog {
	return d.catalog
}

// Decide returns the decision for cmd against state. cmd must already have
// passed command.Registry validation.
func (d *Decider) Decide(state player.State, cmd command.Command, now time.Time) command.Decision {
	switch cmd.Type {
	case CommandTypeAttack:
		var payload AttackPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		return d.decideAttack(state, cmd, payload, now)
	case CommandTypeCraftWall:
		return d.decideCraftFirewall(state, cmd, now)
	case CommandTypeVirusWave:
		return d.decideVirusWave(state, cmd, now)
	case CommandTypeDeployBot:
		var payload DeployBotPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		return d.decideDeployBot(state, cmd, payload, now)
	case CommandTypeRecallBot:
		var payload RecallBotPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		return d.decideRecallBot(state, cmd, payload, now)
	case CommandTypeReboot:
		return d.decideReboot(state, cmd, now)
	case CommandTypeSetUsername:
		var payload SetUsernamePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		return decideSetUsername(state, cmd, payload, now)
	default:
		return reject(apperrors.CodeCommandTypeUnknown, fmt.Sprintf("command type %s is not supported", cmd.Type))
	}
}

// reject declines a command and logs the reason as a warning.
func reject(code apperrors.Code, message string) command.Decision {
	return rejectWithNote(code, message, command.Warn(message))
}

func rejectWithNote(code apperrors.Code, message string, note command.Note) command.Decision {
	return command.Reject(command.Rejection{Code: string(code), Message: message}).WithNotes(note)
}

func newEvent(cmd command.Command, typ event.Type, entityType, entityID string, payload any, now time.Time) event.Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		// Payload types are plain structs; reaching this is a programming error.
		panic(fmt.Sprintf("encode %s payload: %v", typ, err))
	}
	return command.NewEvent(cmd, typ, entityType, entityID, raw, now)
}

func resourcesEvent(cmd command.Command, payload aggregate.ResourcesAdjustedPayload, now time.Time) event.Event {
	return newEvent(cmd, aggregate.EventTypeResourcesAdjusted, aggregate.EntityTypePlayer, "", payload, now)
}

func serverEvent(cmd command.Command, payload aggregate.ServerAdjustedPayload, now time.Time) event.Event {
	return newEvent(cmd, aggregate.EventTypeServerAdjusted, aggregate.EntityTypePlayer, "", payload, now)
}

func botStatusEvent(cmd command.Command, bot player.Bot, to player.BotStatus, reason string, now time.Time) event.Event {
	return newEvent(cmd, aggregate.EventTypeBotStatusChanged, aggregate.EntityTypeBot, bot.ID, aggregate.BotStatusChangedPayload{
		BotID:  bot.ID,
		From:   bot.Status,
		To:     to,
		Reason: reason,
	}, now)
}
