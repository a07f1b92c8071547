// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"testing"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "named key", key: "enter", want: kb.Enter},
		{name: "case-insensitive", key: "Enter", want: kb.Enter},
		{name: "alias", key: "esc", want: kb.Escape},
		{name: "function key", key: "f5", want: kb.F5},
		{name: "single character passes through", key: "a", want: "a"},
		{name: "single unicode rune", key: "é", want: "é"},
		{name: "space", key: "space", want: " "},
		{name: "unknown multi-character name", key: "hyperdrive", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveKey(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveModifiers(t *testing.T) {
	tests := []struct {
		name    string
		mods    []string
		want    input.Modifier
		wantErr bool
	}{
		{name: "none", mods: nil, want: 0},
		{name: "single", mods: []string{"ctrl"}, want: input.ModifierCtrl},
		{name: "alias", mods: []string{"control"}, want: input.ModifierCtrl},
		{name: "combined", mods: []string{"ctrl", "shift"}, want: input.ModifierCtrl | input.ModifierShift},
		{name: "meta aliases", mods: []string{"cmd"}, want: input.ModifierMeta},
		{name: "case-insensitive", mods: []string{"ALT"}, want: input.ModifierAlt},
		{name: "unknown modifier", mods: []string{"hyper"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveModifiers(tt.mods)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
