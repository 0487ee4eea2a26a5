package action

import (
	"time"

	apperrors "github.com/louisbranch/flatline/internal/platform/errors"
	"github.com/louisbranch/flatline/internal/services/game/domain/aggregate"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
)

func (d *Decider) decideCraftFirewall(state player.State, cmd command.Command, now time.Time) command.Decision {
	cost := d.balance.Firewall
	if state.Server.Firewall >= player.TelemetryMax {
		return reject(apperrors.CodeFirewallMaxed, "Firewall already at 100% integrity.")
	}
	if state.Credits < cost.Credits || state.Fragments < cost.Fragments {
		return reject(apperrors.CodeInsufficientResources, sprintf(
			"Insufficient resources: firewall upgrade needs %d credits and %d fragments (have %d and %d).",
			cost.Credits, cost.Fragments, state.Credits, state.Fragments,
		))
	}

	boost := min(cost.Boost, player.TelemetryMax-state.Server.Firewall)
	decision := command.Accept(
		resourcesEvent(cmd, aggregate.ResourcesAdjustedPayload{Credits: -cost.Credits, Fragments: -cost.Fragments, Reason: "firewall.craft"}, now),
		serverEvent(cmd, aggregate.ServerAdjustedPayload{Firewall: boost, Reason: "firewall.craft"}, now),
	)
	return decision.
		WithNotes(command.Success(sprintf("[UPGRADE] Firewall reinforced to %d%%. -%d credits, -%d fragments.",
			state.Server.Firewall+boost, cost.Credits, cost.Fragments))).
		WithDetail("firewall", state.Server.Firewall+boost).
		WithDetail("credits", cost.Credits).
		WithDetail("fragments", cost.Fragments)
}
