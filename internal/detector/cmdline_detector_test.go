package detector

import (
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestCmdlineDetectorEmptyPattern(t *testing.T) {
	d := CmdlineDetector{}
	alive, err := d.Alive()
	if err != nil || alive {
		t.Fatalf("empty pattern must never match, got alive=%v err=%v", alive, err)
	}
}

func TestCmdlineDetectorMatchesChild(t *testing.T) {
	requireUnix(t)
	marker := "launchr-cmdline-detector-test-marker"
	cmd := exec.Command("/bin/sh", "-c", "sleep 5 # "+marker)
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()
	// Give the kernel a moment to expose the child cmdline.
	time.Sleep(100 * time.Millisecond)

	d := CmdlineDetector{Pattern: marker}
	ms, err := d.Matches()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, m := range ms {
		if m.PID == cmd.Process.Pid && strings.Contains(m.Cmdline, marker) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected child pid %d in matches, got %+v", cmd.Process.Pid, ms)
	}
	alive, err := d.Alive()
	if err != nil || !alive {
		t.Fatalf("expected alive=true, got %v %v", alive, err)
	}
}

func TestCmdlineDetectorExcludesPIDs(t *testing.T) {
	requireUnix(t)
	marker := "launchr-cmdline-exclude-test-marker"
	cmd := exec.Command("/bin/sh", "-c", "sleep 5 # "+marker)
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()
	time.Sleep(100 * time.Millisecond)

	d := CmdlineDetector{Pattern: marker, ExtraExcludePIDs: []int{cmd.Process.Pid}}
	ms, err := d.Matches()
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range ms {
		if m.PID == cmd.Process.Pid {
			t.Fatalf("excluded pid %d still present in matches", cmd.Process.Pid)
		}
	}
}

func TestCmdlineDetectorDescribe(t *testing.T) {
	d := CmdlineDetector{Pattern: "python3 main.py"}
	if d.Describe() != "cmdline:python3 main.py" {
		t.Fatalf("Describe mismatch: %q", d.Describe())
	}
}
