// pts_test.go tests pseudo-terminal allocation. The tests exercise the real
// /dev/ptmx and skip on hosts where it is unavailable.
package pts

import (
	"os"
	"strings"
	"testing"
)

func TestAllocate(t *testing.T) {
	session, err := Allocate()
	if err != nil {
		t.Skipf("pseudo-terminal allocation unavailable: %v", err)
	}
	defer session.Close()

	if session.Master == nil {
		t.Fatal("expected a master descriptor")
	}
	if !strings.HasPrefix(session.SlavePath, "/dev/pts/") {
		t.Errorf("slave path = %q, want /dev/pts/N", session.SlavePath)
	}

	// The slave must be resolvable by path so a separate process (the
	// daemon) can open its own end.
	if _, err := os.Stat(session.SlavePath); err != nil {
		t.Errorf("slave path not resolvable: %v", err)
	}
}

func TestAllocate_DistinctSlaves(t *testing.T) {
	first, err := Allocate()
	if err != nil {
		t.Skipf("pseudo-terminal allocation unavailable: %v", err)
	}
	defer first.Close()

	second, err := Allocate()
	if err != nil {
		t.Skipf("second allocation unavailable: %v", err)
	}
	defer second.Close()

	if first.SlavePath == second.SlavePath {
		t.Errorf("both allocations returned slave %q", first.SlavePath)
	}
}

func TestSlaveWritesReachMaster(t *testing.T) {
	session, err := Allocate()
	if err != nil {
		t.Skipf("pseudo-terminal allocation unavailable: %v", err)
	}
	defer session.Close()

	slave, err := os.OpenFile(session.SlavePath, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open slave: %v", err)
	}
	defer slave.Close()

	if _, err := slave.WriteString("ping"); err != nil {
		t.Fatalf("write slave: %v", err)
	}
	buf := make([]byte, 4)
	n, err := session.Master.Read(buf)
	if err != nil {
		t.Fatalf("read master: %v", err)
	}
	if string(buf[:n]) != "ping" {
		t.Errorf("master read %q, want ping", buf[:n])
	}
}
