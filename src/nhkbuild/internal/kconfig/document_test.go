package kconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFile(t *testing.T) {
	content := `#
# Automatically generated file; DO NOT EDIT.
#
CONFIG_ARM64=y
CONFIG_MODULES=y
CONFIG_NF_CONNTRACK=m
# CONFIG_TUN is not set
CONFIG_DEFAULT_HOSTNAME="localhost"
CONFIG_LOG_BUF_SHIFT=17
CONFIG_ARCH_MMAP_RND_BITS=0x18

# some unrelated comment
`
	path := filepath.Join(t.TempDir(), ".config")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	tests := []struct {
		key     string
		want    string
		present bool
	}{
		{"CONFIG_ARM64", "y", true},
		{"CONFIG_NF_CONNTRACK", "m", true},
		{"CONFIG_TUN", "n", true},
		{"CONFIG_DEFAULT_HOSTNAME", "localhost", true},
		{"CONFIG_LOG_BUF_SHIFT", "17", true},
		{"CONFIG_ARCH_MMAP_RND_BITS", "0x18", true},
		{"CONFIG_MISSING", "", false},
	}

	for _, tt := range tests {
		got, ok := doc.Get(tt.key)
		if ok != tt.present || got != tt.want {
			t.Errorf("Get(%s) = (%q, %v), want (%q, %v)", tt.key, got, ok, tt.want, tt.present)
		}
	}

	if doc.Len() != 6 {
		t.Errorf("Len() = %d, want 6", doc.Len())
	}
}

func TestEnabled(t *testing.T) {
	doc := NewDocument()
	doc.options["CONFIG_A"] = "y"
	doc.options["CONFIG_B"] = "m"
	doc.options["CONFIG_C"] = "n"
	doc.options["CONFIG_D"] = "value"

	tests := []struct {
		key  string
		want bool
	}{
		{"CONFIG_A", true},
		{"CONFIG_B", true},
		{"CONFIG_C", false},
		{"CONFIG_D", false},
		{"CONFIG_MISSING", false},
	}

	for _, tt := range tests {
		if got := doc.Enabled(tt.key); got != tt.want {
			t.Errorf("Enabled(%s) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestEnableIdempotent(t *testing.T) {
	doc := NewDocument()

	doc.Enable("CONFIG_TUN")
	doc.Enable("CONFIG_TUN")
	doc.Enable("TUN") // bare names get the CONFIG_ prefix

	if v, _ := doc.Get("CONFIG_TUN"); v != "y" {
		t.Errorf("Get(CONFIG_TUN) = %q, want y", v)
	}
	if doc.Len() != 1 {
		t.Errorf("Len() = %d, want 1", doc.Len())
	}

	first := doc.Render()
	doc.Enable("CONFIG_TUN")
	if doc.Render() != first {
		t.Error("Enable on an enabled key changed the rendered output")
	}
}

func TestEnableOverridesDisabled(t *testing.T) {
	doc := NewDocument()
	doc.options["CONFIG_TUN"] = "n"

	doc.Enable("CONFIG_TUN")
	if !doc.Enabled("CONFIG_TUN") {
		t.Error("Enable did not override an is-not-set option")
	}
}

func TestRender(t *testing.T) {
	doc := NewDocument()
	doc.options["CONFIG_B_MOD"] = "m"
	doc.options["CONFIG_A_BOOL"] = "y"
	doc.options["CONFIG_C_UNSET"] = "n"
	doc.options["CONFIG_D_STR"] = "local host"
	doc.options["CONFIG_E_NUM"] = "17"
	doc.options["CONFIG_F_HEX"] = "0x18"

	want := strings.Join([]string{
		"CONFIG_A_BOOL=y",
		"CONFIG_B_MOD=m",
		"# CONFIG_C_UNSET is not set",
		`CONFIG_D_STR="local host"`,
		"CONFIG_E_NUM=17",
		"CONFIG_F_HEX=0x18",
		"",
	}, "\n")

	if got := doc.Render(); got != want {
		t.Errorf("Render() =\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	doc := NewDocument()
	doc.options["CONFIG_USB_GADGET"] = "y"
	doc.options["CONFIG_CMDLINE"] = "console=ttyMSM0"
	doc.options["CONFIG_DEBUG_INFO"] = "n"

	path := filepath.Join(t.TempDir(), ".config")
	if err := doc.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	reparsed, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if reparsed.Render() != doc.Render() {
		t.Error("render/parse round trip is not stable")
	}
}
