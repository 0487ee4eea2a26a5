package action

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/flatline/internal/platform/errors"
	"github.com/louisbranch/flatline/internal/services/game/domain/aggregate"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
)

// AttackChance returns the breach probability, in percent, for state against t.
func (d *Decider) AttackChance(state player.State, t Target) int {
	a := d.balance.Attack
	defense := t.Defense
	if t.Contested {
		defense += a.ContestedPenalty
	}
	chance := a.BaseChance + (state.Server.CPU-defense)/2 + a.BotBonus*state.CountBots(player.BotDeployed)
	return min(max(chance, a.MinChance), a.MaxChance)
}

// decideAttack resolves attack.launch. A breach only pays credits; a trace
// only damages the server. Nothing else changes either way.
func (d *Decider) decideAttack(state player.State, cmd command.Command, payload AttackPayload, now time.Time) command.Decision {
	targetID := strings.TrimSpace(payload.Target)
	if targetID == "" {
		return reject(apperrors.CodeTargetRequired, "Attack aborted: no target specified.")
	}
	target, ok := d.catalog.Lookup(targetID)
	if !ok {
		message := sprintf("Attack aborted: target %s not found.", highlight(targetID))
		decision := command.Reject(command.Rejection{
			Code:    string(apperrors.CodeTargetNotFound),
			Message: "target " + targetID + " not found",
		})
		if suggestion := d.catalog.Suggest(targetID); suggestion != "" {
			message += sprintf(" Did you mean %s?", highlight(suggestion))
			decision = decision.WithDetail("suggestion", suggestion)
		}
		return decision.WithNotes(command.Warn(message))
	}
	if state.Flatlined() {
		return reject(apperrors.CodeServerOffline, "Attack aborted: server is offline. Reboot to restore it.")
	}
	if target.Faction == FactionAlly {
		return reject(apperrors.CodeTargetFriendly, sprintf("Attack aborted: %s is an allied node.", target.Name))
	}
	if state.Server.Load >= d.balance.Attack.LoadCap {
		return reject(apperrors.CodeServerOverloaded, sprintf("Attack aborted: server load at %d%%. Let the system cool down.", state.Server.Load))
	}

	chance := d.AttackChance(state, target)
	rolled := d.rand.IntN(100)
	opening := command.Info(sprintf("[ATTACK] Launching intrusion on %s (breach chance %d%%)...", target.Name, chance))

	if rolled < chance {
		reward := roll(d.rand, target.RewardMin, target.RewardMax)
		evt := resourcesEvent(cmd, aggregate.ResourcesAdjustedPayload{Credits: reward, Reason: "attack:" + target.ID}, now)
		return command.Accept(evt).
			WithNotes(opening, command.Success(sprintf("[SUCCESS] %s breached. +%d credits.", target.Name, reward))).
			WithDetail("target", target.ID).
			WithDetail("chance", chance).
			WithDetail("roll", rolled).
			WithDetail("reward", reward)
	}

	a := d.balance.Attack
	damage := roll(d.rand, a.FailFirewallMin, a.FailFirewallMax)
	spike := roll(d.rand, a.FailLoadMin, a.FailLoadMax)
	evt := serverEvent(cmd, aggregate.ServerAdjustedPayload{Firewall: -damage, Load: spike, Reason: "trace:" + target.ID}, now)
	decision := command.Accept(evt).
		WithNotes(opening, command.Error(sprintf("[TRACED] %s traced the intrusion. Firewall -%d%%, load +%d%%.", target.Name, damage, spike))).
		WithDetail("target", target.ID).
		WithDetail("chance", chance).
		WithDetail("roll", rolled).
		WithDetail("firewallDamage", damage).
		WithDetail("loadSpike", spike).
		AsFailure()
	if goesDark(state, -damage) {
		decision = decision.WithNotes(flatlineNote()).WithDetail("flatlined", true)
	}
	return decision
}

// goesDark reports whether a firewall change takes an online server down.
func goesDark(state player.State, firewallDelta int) bool {
	return !state.Flatlined() && state.Server.Firewall+firewallDelta <= player.TelemetryMin
}

func flatlineNote() command.Note {
	return command.Error("[FLATLINE] Firewall integrity lost. Server offline until reboot.")
}
