package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   Command
		wantOK bool
	}{
		{"load", "load /tmp/cat.png", Command{Kind: CommandLoad, Path: "/tmp/cat.png"}, true},
		{"load extra whitespace", "  load \t/tmp/cat.png  ", Command{Kind: CommandLoad, Path: "/tmp/cat.png"}, true},
		{"load extra tokens", "load /a.png /b.png", Command{Kind: CommandLoad, Path: "/a.png"}, true},
		{"load substring verb", "reload /tmp/x.jpg", Command{Kind: CommandLoad, Path: "/tmp/x.jpg"}, true},
		{"load crlf", "load /tmp/cat.png\r", Command{Kind: CommandLoad, Path: "/tmp/cat.png"}, true},
		{"load without path", "load", Command{}, false},
		{"fullscreen", "fullscreen", Command{Kind: CommandFullscreen}, true},
		{"fullscreen crlf", "fullscreen\r", Command{Kind: CommandFullscreen}, true},
		{"fullscreen with suffix", "fullscreen now", Command{}, false},
		{"fullscreen padded", " fullscreen", Command{}, false},
		{"unknown", "quit", Command{}, false},
		{"empty", "", Command{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCommand(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandKindString(t *testing.T) {
	assert.Equal(t, "load", CommandLoad.String())
	assert.Equal(t, "fullscreen", CommandFullscreen.String())
	assert.Equal(t, "CommandKind(0)", CommandKind(0).String())
}
