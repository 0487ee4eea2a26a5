package action

import (
	"time"

	"github.com/louisbranch/flatline/internal/services/game/domain/aggregate"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/event"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
)

// decideVirusWave always resolves. The firewall absorbs part of the wave;
// whatever gets through damages the server, and a severe wave also takes out
// one deployed bot. A fully absorbed wave leaves salvage behind.
func (d *Decider) decideVirusWave(state player.State, cmd command.Command, now time.Time) command.Decision {
	v := d.balance.Virus
	severity := roll(d.rand, v.SeverityMin, v.SeverityMax)
	absorbed := state.Server.Firewall * v.Mitigation / 100
	damage := severity - absorbed

	alert := command.Warn(sprintf("[ALERT] Virus wave detected. Threat level %d.", severity))

	if damage <= 0 {
		if v.Salvage == 0 {
			return command.Accept().
				WithNotes(alert, command.Success("[IDS] Wave neutralized by firewall.")).
				WithDetail("severity", severity).
				WithDetail("damage", 0)
		}
		evt := resourcesEvent(cmd, aggregate.ResourcesAdjustedPayload{Fragments: v.Salvage, Reason: "virus.salvage"}, now)
		return command.Accept(evt).
			WithNotes(alert, command.Success(sprintf("[IDS] Wave neutralized by firewall. +%d fragments recovered.", v.Salvage))).
			WithDetail("severity", severity).
			WithDetail("damage", 0).
			WithDetail("salvage", v.Salvage)
	}

	delta := aggregate.ServerAdjustedPayload{
		Firewall: -((damage + 1) / 2),
		CPU:      damage / 3,
		RAM:      damage / 4,
		Load:     damage / 2,
		Reason:   "virus.wave",
	}
	events := []event.Event{serverEvent(cmd, delta, now)}
	notes := []command.Note{
		alert,
		command.Error(sprintf("[BREACH] Virus penetrated defenses. Firewall %d%%, CPU +%d%%, RAM +%d%%, load +%d%%.",
			delta.Firewall, delta.CPU, delta.RAM, delta.Load)),
	}

	decision := command.Decision{}
	if severity >= v.BotLossSeverity {
		if bot, ok := d.pickDeployedBot(state); ok {
			events = append(events, botStatusEvent(cmd, bot, player.BotDestroyed, "virus.wave", now))
			notes = append(notes, command.Error(sprintf("[LOSS] Bot %s was destroyed by the wave.", highlight(bot.ID))))
			decision = decision.WithDetail("botLost", bot.ID)
		}
	}
	flatlined := goesDark(state, delta.Firewall)
	if flatlined {
		notes = append(notes, flatlineNote())
	}

	decision.Events = events
	return decision.
		WithNotes(notes...).
		WithDetail("severity", severity).
		WithDetail("damage", damage).
		WithDetail("flatlined", flatlined).
		AsFailure()
}

func (d *Decider) pickDeployedBot(state player.State) (player.Bot, bool) {
	deployed := make([]player.Bot, 0, len(state.Bots))
	for _, bot := range state.Bots {
		if bot.Status == player.BotDeployed {
			deployed = append(deployed, bot)
		}
	}
	if len(deployed) == 0 {
		return player.Bot{}, false
	}
	return deployed[d.rand.IntN(len(deployed))], true
}
