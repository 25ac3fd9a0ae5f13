package shared

import (
	"errors"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	tc := []struct {
		goos string
		want string
	}{
		{goos: "darwin", want: "open"},
		{goos: "linux", want: "xdg-open"},
		{goos: "windows", want: "rundll32"},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, err := browserCommand(tt.goos, "https://accounts.google.com")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if cmd.Args[0] != tt.want {
				t.Errorf("expected %s, got %s", tt.want, cmd.Args[0])
			}
			if cmd.Args[len(cmd.Args)-1] != "https://accounts.google.com" {
				t.Errorf("expected url as last argument, got %v", cmd.Args)
			}
		})
	}

	t.Run("unsupported platform", func(t *testing.T) {
		if _, err := browserCommand("plan9", "https://example.com"); !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})

	t.Run("OpenBrowser on unsupported runtime", func(t *testing.T) {
		orig := getRuntime
		t.Cleanup(func() { getRuntime = orig })
		getRuntime = func() string { return "plan9" }

		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected error on unsupported runtime")
		}
	})
}
