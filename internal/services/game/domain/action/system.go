package action

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/louisbranch/flatline/internal/platform/errors"
	"github.com/louisbranch/flatline/internal/services/game/domain/aggregate"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
)

// UsernameMaxLen caps operator names.
const UsernameMaxLen = 32

// decideReboot brings a flatlined server back to its starting telemetry.
func (d *Decider) decideReboot(state player.State, cmd command.Command, now time.Time) command.Decision {
	if !state.Flatlined() {
		return reject(apperrors.CodeServerOnline, "Reboot refused: server is still online.")
	}
	baseline := d.balance.Start.Server.Clamp()
	evt := newEvent(cmd, aggregate.EventTypeServerReset, aggregate.EntityTypePlayer, "", aggregate.ServerResetPayload{Server: baseline}, now)
	return command.Accept(evt).
		WithNotes(
			command.Info("[BOOT] Initializing kernel.sys ..."),
			command.Success(sprintf("[OK] System restored. Firewall %d%%.", baseline.Firewall)),
		).
		WithDetail("server", baseline)
}

// decideSetUsername renames the operator. A blank name means the default.
func decideSetUsername(state player.State, cmd command.Command, payload SetUsernamePayload, now time.Time) command.Decision {
	name := strings.TrimSpace(payload.Username)
	if name == "" {
		name = player.DefaultUsername
	}
	if utf8.RuneCountInString(name) > UsernameMaxLen {
		return reject(apperrors.CodeUsernameInvalid, sprintf("Login refused: username longer than %d characters.", UsernameMaxLen))
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return reject(apperrors.CodeUsernameInvalid, "Login refused: username contains control characters.")
	}
	note := command.Info(sprintf("[AUTH] Operator %s connected.", highlight(name)))
	if name == state.Username {
		return command.Accept().WithNotes(note).WithDetail("username", name)
	}
	evt := newEvent(cmd, aggregate.EventTypeUsernameSet, aggregate.EntityTypePlayer, "", aggregate.UsernameSetPayload{Username: name}, now)
	return command.Accept(evt).WithNotes(note).WithDetail("username", name)
}
