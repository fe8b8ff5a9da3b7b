package directive

import (
	"testing"

	"github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		key     string
		want    Directive
		wantErr bool
	}{
		{key: "color", want: Directive{}},
		{key: "-x", want: Directive{}},
		{key: "--", want: Directive{}},
		{key: "--map color", want: Directive{Kind: Map, Arg: "color"}},
		{key: "--map", want: Directive{Kind: Map}},
		{key: "--map key with spaces", want: Directive{Kind: Map, Arg: "key with spaces"}},
		{key: "--mapZipper size", want: Directive{Kind: MapZipper, Arg: "size"}},
		{key: "--mapKey", want: Directive{Kind: MapKey}},
		{key: "--mapContent", want: Directive{Kind: MapContent}},
		{key: "--mapExclude", want: Directive{Kind: MapExclude}},
		{key: "--mapAllowOnly", want: Directive{Kind: MapAllowOnly}},
		{key: "--include base.json", want: Directive{Kind: Include, Arg: "base.json"}},
		{key: "--include  padded.json ", want: Directive{Kind: Include, Arg: "padded.json"}},
		{key: "--concat tags", want: Directive{Kind: Concat, Arg: "tags"}},
		{key: "--zipperMerge name", want: Directive{Kind: ZipperMerge, Arg: "name"}},
		{key: "--comment", want: Directive{Kind: Comment}},
		{key: "--comment about this", want: Directive{Kind: Comment}},
		{key: "--comments", want: Directive{Kind: Comment}},
		{key: "--filename", want: Directive{Kind: Filename}},

		{key: "--mop color", wantErr: true},
		{key: "--mapz x", wantErr: true},
		{key: "--include", wantErr: true},
		{key: "--include ", wantErr: true},
		{key: "--concat", wantErr: true},
		{key: "--mapZipper", wantErr: true},
		{key: "--filename x", wantErr: true},
		{key: "--mapExclude list", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParseKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidDirective) {
					t.Errorf("ParseKey(%q) code = %v", tt.key, errors.GetCode(err))
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseKey(%q) = %+v, want %+v", tt.key, got, tt.want)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		value layout.Value
		want  Directive
	}{
		{layout.String("--include part.json"), Directive{Kind: Include, Arg: "part.json"}},
		{layout.String("--mapKey server"), Directive{Kind: MapKey, Arg: "server"}},
		{layout.String("--comment hello"), Directive{Kind: Comment}},
		{layout.String("--include"), Directive{}},
		{layout.String("--include "), Directive{}},
		{layout.String("--map color"), Directive{}},
		{layout.String("plain"), Directive{}},
		{layout.Int(3), Directive{}},
		{nil, Directive{}},
	}

	for _, tt := range tests {
		if got := ParseValue(tt.value); got != tt.want {
			t.Errorf("ParseValue(%s) = %+v, want %+v", layout.Sprint(tt.value), got, tt.want)
		}
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		kind Kind
		arg  string
		want string
	}{
		{Map, "color", "--map color"},
		{Map, "", "--map"},
		{MapZipper, "size", "--mapZipper size"},
		{Include, "a.json", "--include a.json"},
		{Comment, "", "--comment"},
	}
	for _, tt := range tests {
		if got := Key(tt.kind, tt.arg); got != tt.want {
			t.Errorf("Key(%v, %q) = %q, want %q", tt.kind, tt.arg, got, tt.want)
		}
		d, err := ParseKey(tt.want)
		if err != nil || d.Kind != tt.kind || d.Arg != tt.arg {
			t.Errorf("ParseKey(Key(%v, %q)) = %+v, %v", tt.kind, tt.arg, d, err)
		}
	}
}

func TestParseIncludeMode(t *testing.T) {
	tests := []struct {
		value layout.Value
		want  IncludeMode
	}{
		{layout.String("DEFAULTS"), Defaults},
		{layout.String("OVERRIDES"), Overrides},
		{layout.String("PERMUTE"), Permute},
		{layout.String("permute"), Permute},
		{layout.String("other"), Defaults},
		{layout.Null{}, Defaults},
		{layout.NewObject(), Defaults},
	}
	for _, tt := range tests {
		if got := ParseIncludeMode(tt.value); got != tt.want {
			t.Errorf("ParseIncludeMode(%s) = %v, want %v", layout.Sprint(tt.value), got, tt.want)
		}
	}
}
