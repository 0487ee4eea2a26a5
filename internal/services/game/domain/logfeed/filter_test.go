package logfeed

import "testing"

func TestFilter(t *testing.T) {
	feed := New(Options{})
	feed.Publish(Entry{ID: "01A", Level: LevelInfo, Text: "[OK] Firewall module active.", TS: 1000})
	feed.Publish(Entry{ID: "01B", Level: LevelWarn, Text: "Attack failed", TS: 2000})
	feed.Publish(Entry{ID: "01C", Level: LevelError, Text: "[FLATLINE]", TS: 3000})

	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"01A", "01B", "01C"}},
		{`level = "warn"`, []string{"01B"}},
		{`level != "info"`, []string{"01B", "01C"}},
		{`ts >= 2000`, []string{"01B", "01C"}},
		{`ts > 1000 AND level = "error"`, []string{"01C"}},
		{`level = "info" OR level = "error"`, []string{"01A", "01C"}},
		{`NOT level = "warn"`, []string{"01A", "01C"}},
		{`id > "01A"`, []string{"01B", "01C"}},
		{`time < timestamp("1970-01-01T00:00:02Z")`, []string{"01A"}},
	}
	for _, tc := range tests {
		t.Run(tc.filter, func(t *testing.T) {
			entries, err := feed.Filter(tc.filter)
			if err != nil {
				t.Fatalf("filter: %v", err)
			}
			var ids []string
			for _, e := range entries {
				ids = append(ids, e.ID)
			}
			if len(ids) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, ids)
			}
			for i := range ids {
				if ids[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, ids)
				}
			}
		})
	}
}

func TestFilterErrors(t *testing.T) {
	for _, filter := range []string{`unknown = "x"`, `level = `, `ts = "soon"`} {
		if _, err := ParseFilter(filter); err == nil {
			t.Fatalf("expected error for %q", filter)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if _, err := ParseLevel("success"); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := ParseLevel("fatal"); err == nil {
		t.Fatal("expected error")
	}
}
