package aggregate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/flatline/internal/services/game/domain/event"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
)

const (
	EventTypeResourcesAdjusted event.Type = "player.resources_adjusted"
	EventTypeServerAdjusted    event.Type = "player.server_adjusted"
	EventTypeServerReset       event.Type = "player.server_reset"
	EventTypeBotDeployed       event.Type = "player.bot_deployed"
	EventTypeBotStatusChanged  event.Type = "player.bot_status_changed"
	EventTypeUsernameSet       event.Type = "player.username_set"

	// EntityTypeBot addresses bot events.
	EntityTypeBot = "bot"
	// EntityTypePlayer addresses events about the whole record.
	EntityTypePlayer = "player"
)

// ResourcesAdjustedPayload carries signed deltas for credits and fragments.
type ResourcesAdjustedPayload struct {
	Credits   int    `json:"credits,omitempty"`
	Fragments int    `json:"fragments,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ServerAdjustedPayload carries signed deltas for server gauges. The result is clamped.
type ServerAdjustedPayload struct {
	CPU      int    `json:"cpu,omitempty"`
	RAM      int    `json:"ram,omitempty"`
	Firewall int    `json:"firewall,omitempty"`
	Load     int    `json:"load,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ServerResetPayload replaces the server gauges wholesale.
type ServerResetPayload struct {
	Server player.Server `json:"server"`
}

// BotDeployedPayload adds a bot to the fleet.
type BotDeployedPayload struct {
	BotID string `json:"bot_id"`
	Model string `json:"model"`
}

// BotStatusChangedPayload moves a bot between lifecycle statuses.
type BotStatusChangedPayload struct {
	BotID  string           `json:"bot_id"`
	From   player.BotStatus `json:"from"`
	To     player.BotStatus `json:"to"`
	Reason string           `json:"reason,omitempty"`
}

// UsernameSetPayload renames the operator.
type UsernameSetPayload struct {
	Username string `json:"username"`
}

// RegisterEvents adds every player event definition to registry.
func RegisterEvents(registry *event.Registry) error {
	defs := []event.Definition{
		{Type: EventTypeResourcesAdjusted, ValidatePayload: validateResourcesAdjusted},
		{Type: EventTypeServerAdjusted, ValidatePayload: validateServerAdjusted},
		{Type: EventTypeServerReset, ValidatePayload: validateServerReset},
		{Type: EventTypeBotDeployed, ValidatePayload: validateBotDeployed, RequireEntity: true},
		{Type: EventTypeBotStatusChanged, ValidatePayload: validateBotStatusChanged, RequireEntity: true},
		{Type: EventTypeUsernameSet, ValidatePayload: validateUsernameSet},
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func decode[T any](raw json.RawMessage) (T, error) {
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func validateResourcesAdjusted(raw json.RawMessage) error {
	payload, err := decode[ResourcesAdjustedPayload](raw)
	if err != nil {
		return err
	}
	if payload.Credits == 0 && payload.Fragments == 0 {
		return errors.New("resource adjustment must change something")
	}
	return nil
}

func validateServerAdjusted(raw json.RawMessage) error {
	payload, err := decode[ServerAdjustedPayload](raw)
	if err != nil {
		return err
	}
	if payload.CPU == 0 && payload.RAM == 0 && payload.Firewall == 0 && payload.Load == 0 {
		return errors.New("server adjustment must change something")
	}
	return nil
}

func validateServerReset(raw json.RawMessage) error {
	payload, err := decode[ServerResetPayload](raw)
	if err != nil {
		return err
	}
	if payload.Server != payload.Server.Clamp() {
		return errors.New("server reset values out of range")
	}
	return nil
}

func validateBotDeployed(raw json.RawMessage) error {
	payload, err := decode[BotDeployedPayload](raw)
	if err != nil {
		return err
	}
	if strings.TrimSpace(payload.BotID) == "" {
		return errors.New("bot_id is required")
	}
	if strings.TrimSpace(payload.Model) == "" {
		return errors.New("model is required")
	}
	return nil
}

func validateBotStatusChanged(raw json.RawMessage) error {
	payload, err := decode[BotStatusChangedPayload](raw)
	if err != nil {
		return err
	}
	if strings.TrimSpace(payload.BotID) == "" {
		return errors.New("bot_id is required")
	}
	if !payload.To.Valid() {
		return fmt.Errorf("unknown bot status %q", payload.To)
	}
	return nil
}

func validateUsernameSet(raw json.RawMessage) error {
	payload, err := decode[UsernameSetPayload](raw)
	if err != nil {
		return err
	}
	if strings.TrimSpace(payload.Username) == "" {
		return errors.New("username is required")
	}
	return nil
}
