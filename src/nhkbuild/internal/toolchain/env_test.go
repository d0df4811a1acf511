package toolchain

import (
	"strings"
	"testing"
)

func TestFlameEnvironment(t *testing.T) {
	env := FlameEnvironment("/work/clang_toolchain/bin")

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"Arch", env.Arch, "arm64"},
		{"SubArch", env.SubArch, "arm64"},
		{"ClangTriple", env.ClangTriple, "aarch64-linux-gnu-"},
		{"CrossCompile", env.CrossCompile, "aarch64-linux-android-"},
		{"CrossCompileArm32", env.CrossCompileArm32, "arm-linux-androideabi-"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}
}

func TestEnviron(t *testing.T) {
	env := FlameEnvironment("/work/clang_toolchain/bin")
	environ := env.Environ()

	if len(environ) != 6 {
		t.Fatalf("Environ() returned %d entries, want 6", len(environ))
	}

	if !strings.HasPrefix(environ[0], "PATH=/work/clang_toolchain/bin") {
		t.Errorf("PATH entry = %q, want toolchain bin dir first", environ[0])
	}

	want := map[string]bool{
		"ARCH=arm64":                           false,
		"SUBARCH=arm64":                        false,
		"CLANG_TRIPLE=aarch64-linux-gnu-":      false,
		"CROSS_COMPILE=aarch64-linux-android-": false,
		"CROSS_COMPILE_ARM32=arm-linux-androideabi-": false,
	}
	for _, entry := range environ[1:] {
		if _, ok := want[entry]; !ok {
			t.Errorf("unexpected entry %q", entry)
			continue
		}
		want[entry] = true
	}
	for entry, seen := range want {
		if !seen {
			t.Errorf("missing entry %q", entry)
		}
	}
}
