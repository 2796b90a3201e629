package cli

import "testing"

func TestParseUserID(t *testing.T) {
	if got, err := parseUserID("123456789"); err != nil || got != "123456789" {
		t.Fatalf("parseUserID = %q, %v", got, err)
	}
	if _, err := parseUserID("@neo"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestRootRegistersCommands(t *testing.T) {
	want := map[string]bool{"serve": false, "resolve": false, "stats": false, "history": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("command %q is not registered", name)
		}
	}
}
