package runtime

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/wippyai/lua-runtime/errors"
	"github.com/wippyai/lua-runtime/scripthost"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func newLoaded(t *testing.T) (*Instance, string, string) {
	t.Helper()

	hostDir := t.TempDir()
	sysDir := t.TempDir()

	inst, err := New(Config{
		Files:  scripthost.NewDir("gamemode", hostDir),
		System: scripthost.NewDir("system", sysDir),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { inst.Close() })
	return inst, hostDir, sysDir
}

func TestLoad_HostShadowsSystem(t *testing.T) {
	inst, hostDir, sysDir := newLoaded(t)

	writeScript(t, hostDir, "main.lua", `origin = "host"`)
	writeScript(t, sysDir, "main.lua", `origin = "system"`)

	if err := inst.LoadFile("main.lua"); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if v := inst.State().GetGlobal("origin"); v != lua.LString("host") {
		t.Fatalf("origin = %v, want host", v)
	}
}

func TestLoad_FallsBackToSystem(t *testing.T) {
	inst, _, sysDir := newLoaded(t)

	writeScript(t, sysDir, "lib.lua", `origin = "system"`)

	if err := inst.LoadFile("lib.lua"); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if v := inst.State().GetGlobal("origin"); v != lua.LString("system") {
		t.Fatalf("origin = %v, want system", v)
	}
}

func TestLoad_NotFound(t *testing.T) {
	inst, _, _ := newLoaded(t)

	err := inst.LoadFile("missing.lua")
	if err == nil {
		t.Fatal("LoadFile of a missing script should fail")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindNotFound {
		t.Fatalf("Expected not-found error, got %v", err)
	}
}

func TestLoad_ResourceNameFromFiles(t *testing.T) {
	inst, _, _ := newLoaded(t)

	if inst.ResourceName() != "gamemode" {
		t.Fatalf("ResourceName = %q, want gamemode", inst.ResourceName())
	}
}

func TestLoad_SyntaxError(t *testing.T) {
	inst, hostDir, _ := newLoaded(t)

	writeScript(t, hostDir, "broken.lua", `function (`)

	err := inst.LoadFile("broken.lua")
	if err == nil {
		t.Fatal("LoadFile of a broken script should fail")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindCompile {
		t.Fatalf("Expected compile error, got %v", err)
	}
	if errors.IsFatal(err) {
		t.Fatal("Compile error must not be fatal")
	}
}

func TestLoad_RuntimeErrorKeepsInstanceUsable(t *testing.T) {
	inst, hostDir, _ := newLoaded(t)

	writeScript(t, hostDir, "raise.lua", `error("top-level failure")`)
	writeScript(t, hostDir, "fine.lua", `ok = true`)

	err := inst.LoadFile("raise.lua")
	if err == nil {
		t.Fatal("LoadFile of a raising script should fail")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindExec {
		t.Fatalf("Expected exec error, got %v", err)
	}

	if err := inst.LoadFile("fine.lua"); err != nil {
		t.Fatalf("Instance unusable after script error: %v", err)
	}
	if v := inst.State().GetGlobal("ok"); v != lua.LTrue {
		t.Fatal("Follow-up script did not run")
	}
}

func TestLoad_NativesBuild(t *testing.T) {
	sysDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(sysDir, "natives"), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	writeScript(t, filepath.Join(sysDir, "natives"), "defs.lua", `natives_loaded = true`)

	inst, err := New(Config{
		Resource:   "test",
		NativesDir: "natives",
		System:     scripthost.NewDir("system", sysDir),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer inst.Close()

	if err := inst.LoadNativesBuild("defs.lua"); err != nil {
		t.Fatalf("LoadNativesBuild failed: %v", err)
	}
	if v := inst.State().GetGlobal("natives_loaded"); v != lua.LTrue {
		t.Fatal("Natives build did not run")
	}
}
