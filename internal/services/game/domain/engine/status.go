package engine

import "github.com/louisbranch/flatline/internal/services/game/domain/command"

// Status is the engine lifecycle state.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
	StatusClosed        Status = "closed"
)

// bootLines are published once, in order, when the engine becomes ready.
var bootLines = []command.Note{
	command.Info("[BOOT] Initializing kernel.sys ..."),
	command.Success("[OK] Firewall module active."),
	command.Success("[OK] IDS monitoring online."),
	command.Info("[INIT] Mounting /server/root ..."),
	command.Success("[OK] System boot complete."),
	command.Success("SYSTEM READY. CLICK TO CONTINUE"),
}

// BootLines returns the boot sequence texts in publish order.
func BootLines() []string {
	out := make([]string, len(bootLines))
	for i, note := range bootLines {
		out[i] = note.Text
	}
	return out
}
