package merge

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func defaults() map[string]any {
	return map[string]any{
		"proxies": map[string]any{
			"exceptions": map[string]any{
				"ifHostProxied": map[string]any{
					"youtube.com": false,
				},
			},
			"enabled": true,
			"hosts":   []any{"proxy1", "proxy2"},
		},
		"timeout": 30.0,
	}
}

func TestMergeEmptyOverlayIsIdentity(t *testing.T) {
	def := defaults()
	merged, err := Trees(def, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(def, merged); diff != "" {
		t.Errorf("merge with empty overlay differs from defaults (-want +got):\n%s", diff)
	}

	// Copy independence: mutating the result must not touch the input.
	merged["proxies"].(map[string]any)["enabled"] = false
	merged["proxies"].(map[string]any)["hosts"].([]any)[0] = "changed"
	if def["proxies"].(map[string]any)["enabled"] != true {
		t.Error("mutating merged map leaked into defaults")
	}
	if def["proxies"].(map[string]any)["hosts"].([]any)[0] != "proxy1" {
		t.Error("mutating merged slice leaked into defaults")
	}
}

func TestMergeOverlayWins(t *testing.T) {
	tests := []struct {
		name    string
		def     map[string]any
		custom  map[string]any
		want    map[string]any
		wantErr error
	}{
		{
			name:   "compatible leaf override",
			def:    map[string]any{"a": map[string]any{"b": false, "c": "keep"}},
			custom: map[string]any{"a": map[string]any{"b": true}},
			want:   map[string]any{"a": map[string]any{"b": true, "c": "keep"}},
		},
		{
			name:   "overlay introduces default-less setting",
			def:    map[string]any{"a": map[string]any{"b": 1.0}},
			custom: map[string]any{"a": map[string]any{"new": "value"}, "extra": true},
			want:   map[string]any{"a": map[string]any{"b": 1.0, "new": "value"}, "extra": true},
		},
		{
			name:   "arrays replace wholesale",
			def:    map[string]any{"hosts": []any{"a", "b", "c"}},
			custom: map[string]any{"hosts": []any{"z"}},
			want:   map[string]any{"hosts": []any{"z"}},
		},
		{
			name:   "numeric kinds are compatible",
			def:    map[string]any{"n": 30.0},
			custom: map[string]any{"n": 45},
			want:   map[string]any{"n": 45},
		},
		{
			name:    "bool default string overlay",
			def:     map[string]any{"a": map[string]any{"flag": true}},
			custom:  map[string]any{"a": map[string]any{"flag": "yes"}},
			wantErr: ErrTypeMismatch,
		},
		{
			name:    "mapping default scalar overlay",
			def:     map[string]any{"a": map[string]any{"b": 1.0}},
			custom:  map[string]any{"a": "oops"},
			wantErr: ErrTypeMismatch,
		},
		{
			name:    "array default mapping overlay",
			def:     map[string]any{"hosts": []any{"a"}},
			custom:  map[string]any{"hosts": map[string]any{"b": 1}},
			wantErr: ErrTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Trees(tt.def, tt.custom)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Trees error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("merged tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeErrorLeavesInputsUntouched(t *testing.T) {
	def := map[string]any{"a": map[string]any{"flag": true}}
	custom := map[string]any{"a": map[string]any{"flag": "yes"}}

	_, err := Trees(def, custom)
	var tmErr *TypeMismatchError
	if !errors.As(err, &tmErr) {
		t.Fatalf("error = %v, want *TypeMismatchError", err)
	}
	if tmErr.Path != "a.flag" {
		t.Errorf("Path = %q, want %q", tmErr.Path, "a.flag")
	}
	if tmErr.Default != true || tmErr.Custom != "yes" {
		t.Errorf("diagnostics = (%v, %v), want (true, yes)", tmErr.Default, tmErr.Custom)
	}

	if diff := cmp.Diff(map[string]any{"a": map[string]any{"flag": true}}, def); diff != "" {
		t.Errorf("default tree mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"a": map[string]any{"flag": "yes"}}, custom); diff != "" {
		t.Errorf("overlay tree mutated (-want +got):\n%s", diff)
	}
}

func TestMergeOneSideDefined(t *testing.T) {
	src := map[string]any{"k": []any{1, 2}}

	got, err := Merge(src, nil, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got.(map[string]any)["k"].([]any)[0] = 99
	if src["k"].([]any)[0] != 1 {
		t.Error("default-only merge result aliases the source")
	}

	got, err = Merge(nil, src, false, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got.(map[string]any)["k"].([]any)[1] = 99
	if src["k"].([]any)[1] != 2 {
		t.Error("overlay-only merge result aliases the source")
	}
}

func TestMergeNeitherDefined(t *testing.T) {
	if _, err := Merge(nil, nil, false, false); !errors.Is(err, ErrMergeInput) {
		t.Errorf("error = %v, want ErrMergeInput", err)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		value any
		want  Kind
	}{
		{nil, KindNull},
		{true, KindBool},
		{"s", KindString},
		{1, KindNumber},
		{int64(1), KindNumber},
		{1.5, KindNumber},
		{[]any{}, KindArray},
		{map[string]any{}, KindMapping},
		{struct{}{}, KindUnknown},
	}

	for _, tt := range tests {
		if got := KindOf(tt.value); got != tt.want {
			t.Errorf("KindOf(%#v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
