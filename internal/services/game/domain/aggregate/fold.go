package aggregate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/flatline/internal/services/game/domain/event"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
)

// FoldHandledTypes returns the event types Fold understands.
func FoldHandledTypes() []event.Type {
	return []event.Type{
		EventTypeResourcesAdjusted,
		EventTypeServerAdjusted,
		EventTypeServerReset,
		EventTypeBotDeployed,
		EventTypeBotStatusChanged,
		EventTypeUsernameSet,
	}
}

// Fold applies one event to state. It never mutates the caller's bot slice.
func Fold(state player.State, evt event.Event) (player.State, error) {
	state = state.Clone()
	switch evt.Type {
	case EventTypeResourcesAdjusted:
		var payload ResourcesAdjustedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("fold %s: %w", evt.Type, err)
		}
		credits := state.Credits + payload.Credits
		fragments := state.Fragments + payload.Fragments
		if credits < 0 || fragments < 0 {
			return state, fmt.Errorf("fold %s: resources would go negative (credits %d, fragments %d)", evt.Type, credits, fragments)
		}
		state.Credits = credits
		state.Fragments = fragments
	case EventTypeServerAdjusted:
		var payload ServerAdjustedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("fold %s: %w", evt.Type, err)
		}
		state.Server = player.Server{
			CPU:      state.Server.CPU + payload.CPU,
			RAM:      state.Server.RAM + payload.RAM,
			Firewall: state.Server.Firewall + payload.Firewall,
			Load:     state.Server.Load + payload.Load,
		}.Clamp()
	case EventTypeServerReset:
		var payload ServerResetPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("fold %s: %w", evt.Type, err)
		}
		state.Server = payload.Server.Clamp()
	case EventTypeBotDeployed:
		var payload BotDeployedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("fold %s: %w", evt.Type, err)
		}
		if _, exists := state.Bot(payload.BotID); exists {
			return state, fmt.Errorf("fold %s: bot %q already exists", evt.Type, payload.BotID)
		}
		state.Bots = append(state.Bots, player.Bot{
			ID:     payload.BotID,
			Status: player.BotDeployed,
			Model:  payload.Model,
		})
	case EventTypeBotStatusChanged:
		var payload BotStatusChangedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("fold %s: %w", evt.Type, err)
		}
		if !payload.To.Valid() {
			return state, fmt.Errorf("fold %s: unknown status %q", evt.Type, payload.To)
		}
		found := false
		for i := range state.Bots {
			if state.Bots[i].ID != payload.BotID {
				continue
			}
			if payload.From != "" && state.Bots[i].Status != payload.From {
				return state, fmt.Errorf("fold %s: bot %q is %s, expected %s", evt.Type, payload.BotID, state.Bots[i].Status, payload.From)
			}
			state.Bots[i].Status = payload.To
			found = true
			break
		}
		if !found {
			return state, fmt.Errorf("fold %s: unknown bot %q", evt.Type, payload.BotID)
		}
	case EventTypeUsernameSet:
		var payload UsernameSetPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("fold %s: %w", evt.Type, err)
		}
		name := strings.TrimSpace(payload.Username)
		if name == "" {
			return state, fmt.Errorf("fold %s: username is required", evt.Type)
		}
		state.Username = name
	default:
		return state, fmt.Errorf("fold: unhandled event type %s", evt.Type)
	}
	return state, nil
}

// FoldAll applies events in order and validates the result. On error the
// returned state is the untouched input.
func FoldAll(state player.State, events []event.Event) (player.State, error) {
	next := state.Clone()
	for _, evt := range events {
		var err error
		next, err = Fold(next, evt)
		if err != nil {
			return state, err
		}
	}
	if err := next.Validate(); err != nil {
		return state, fmt.Errorf("fold result invalid: %w", err)
	}
	return next, nil
}
