//go:build e2e

package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

var wdlcacheBinary string

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "wdlcache-e2e-*")
	if err != nil {
		panic(err)
	}

	wdlcacheBinary = filepath.Join(tmpDir, "wdlcache")

	//nolint:gosec // Building binary with static arguments, not user input
	cmd := exec.Command("go", "build", "-o", wdlcacheBinary, "./cmd/wdlcache")
	cmd.Dir = ".."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		panic("failed to build wdlcache binary: " + err.Error())
	}

	exitCode := m.Run()

	_ = os.RemoveAll(tmpDir)

	os.Exit(exitCode)
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   "testdata",
		Setup: setupE2E,
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"lastbackup": cmdLastBackup,
		},
	})
}

func setupE2E(env *testscript.Env) error {
	env.Setenv("NO_COLOR", "1")
	env.Setenv("CI", "true")
	env.Setenv("WDLCACHE_AUTO_SAVE", "false")

	binDir := filepath.Dir(wdlcacheBinary)
	currentPath := env.Getenv("PATH")
	env.Setenv("PATH", binDir+string(os.PathListSeparator)+currentPath)

	homeDir := filepath.Join(env.WorkDir, ".home")
	if err := os.MkdirAll(homeDir, 0o750); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)

	return nil
}

// cmdLastBackup stores the name of the newest backup under .wdlcache/backups
// in the environment variable named by its argument.
func cmdLastBackup(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! lastbackup")
	}
	if len(args) != 1 {
		ts.Fatalf("usage: lastbackup VAR")
	}

	entries, err := os.ReadDir(ts.MkAbs(filepath.Join(".wdlcache", "backups")))
	ts.Check(err)

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		ts.Fatalf("no backups found")
	}
	slices.Sort(names)
	ts.Setenv(args[0], names[len(names)-1])
}
