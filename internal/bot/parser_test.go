package bot

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()
	tests := []struct {
		text  string
		cmd   string
		args  []string
		isCmd bool
	}{
		{"/start", "start", nil, true},
		{"  /START  abc ", "start", []string{"abc"}, true},
		{"/start@fitmates_bot code", "start", []string{"code"}, true},
		{"/top", "top", nil, true},
		{"hello", "", nil, false},
		{"/", "", nil, false},
		{"/@bot", "", nil, false},
	}
	for _, tt := range tests {
		cmd, args, ok := p.ParseCommand(tt.text)
		if cmd != tt.cmd || ok != tt.isCmd || !reflect.DeepEqual(args, tt.args) {
			t.Errorf("ParseCommand(%q)=(%q, %v, %v), want (%q, %v, %v)",
				tt.text, cmd, args, ok, tt.cmd, tt.args, tt.isCmd)
		}
	}
}
