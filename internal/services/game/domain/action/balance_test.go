package action

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadBalanceFileOverlaysDefaults(t *testing.T) {
	balance, err := LoadBalanceFile(filepath.Join("testdata", "balance.lua"))
	if err != nil {
		t.Fatalf("load balance: %v", err)
	}
	if balance.Start.Credits != 1000 || balance.Start.Server.Firewall != 40 {
		t.Fatalf("start state not applied: %+v", balance.Start)
	}
	if balance.Firewall.Credits != 800 {
		t.Fatalf("expected firewall credits 800, got %d", balance.Firewall.Credits)
	}
	if balance.Firewall.Fragments != DefaultBalance().Firewall.Fragments {
		t.Fatal("unspecified firewall fields should keep defaults")
	}
	if balance.MaxBots != 3 || len(balance.Targets) != 3 || len(balance.Bots) != 1 {
		t.Fatalf("unexpected lists: max=%d targets=%d bots=%d", balance.MaxBots, len(balance.Targets), len(balance.Bots))
	}
	red, ok := NewCatalog(balance.Targets).Lookup("red-server")
	if !ok || !red.Contested || red.RewardMax != 800 {
		t.Fatalf("unexpected red-server %+v", red)
	}
	if model, ok := balance.BotModel("scout-alpha"); !ok || model.Cost != 200 {
		t.Fatalf("unexpected bot model %+v", model)
	}
}

func TestParseBalanceErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":        "return {",
		"not a table":   "return 42",
		"runtime error": "error('boom')",
		"unknown key":   "return { turbo = true }",
		"invalid":       "return { max_bots = 0 }",
		"bad helper":    "return { bots = { flatline.bot('x') } }",
	}
	for name, source := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseBalance(source); err == nil {
				t.Fatalf("expected error for %q", source)
			}
		})
	}
}

func TestParseBalanceEmptyTableKeepsDefaults(t *testing.T) {
	balance, err := ParseBalance("return {}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if balance.Start.Credits != DefaultBalance().Start.Credits || len(balance.Targets) != len(DefaultBalance().Targets) {
		t.Fatal("expected defaults")
	}
}

func TestBalanceValidate(t *testing.T) {
	tests := map[string]func(*Balance){
		"chance bounds":     func(b *Balance) { b.Attack.MinChance = 96 },
		"load cap":          func(b *Balance) { b.Attack.LoadCap = 0 },
		"duplicate target":  func(b *Balance) { b.Targets = append(b.Targets, b.Targets[0]) },
		"unknown faction":   func(b *Balance) { b.Targets[1].Faction = "rogue" },
		"bad reward":        func(b *Balance) { b.Targets[0].RewardMin = 0 },
		"duplicate bot":     func(b *Balance) { b.Bots = append(b.Bots, b.Bots[0]) },
		"negative bot cost": func(b *Balance) { b.Bots[0].Cost = -1 },
		"free failure":      func(b *Balance) { b.Attack.FailFirewallMin, b.Attack.FailFirewallMax, b.Attack.FailLoadMin, b.Attack.FailLoadMax = 0, 0, 0, 0 },
		"bad start":         func(b *Balance) { b.Start.Credits = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			b := DefaultBalance()
			mutate(&b)
			if err := b.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCatalogSuggest(t *testing.T) {
	catalog := NewCatalog(DefaultBalance().Targets)
	if got := catalog.Suggest("node666"); got != "node-666" {
		t.Fatalf("expected node-666, got %q", got)
	}
	if got := catalog.Suggest("completely-unrelated-name"); got != "" {
		t.Fatalf("expected no suggestion, got %q", got)
	}
	if got := catalog.Suggest("node-alpa"); strings.HasPrefix(got, "node-alpha") {
		t.Fatal("allied nodes must not be suggested")
	}
	if len(catalog.Targets()) != len(DefaultBalance().Targets) {
		t.Fatal("catalog dropped targets")
	}
}
