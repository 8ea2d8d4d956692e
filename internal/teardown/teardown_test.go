// teardown_test.go tests the armed/tripped state machine: descriptor
// closure unblocking a pump, one-way transition, signal delivery.
package teardown

import (
	"io"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/doughall/elevate/internal/pts"
)

func TestTrip_ClosesSharedDescriptors(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer w.Close()

	ctrl := New(nil, []io.Closer{r}, slog.Default())

	// Block a reader on the shared descriptor, as a relay pump would.
	unblocked := make(chan error, 1)
	go func() {
		buf := make([]byte, 1)
		_, err := r.Read(buf)
		unblocked <- err
	}()
	time.Sleep(50 * time.Millisecond) // let the read block

	ctrl.trip()

	select {
	case err := <-unblocked:
		if err == nil {
			t.Error("expected an error from the forced-closed read")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked read did not unblock within bounded time")
	}

	select {
	case <-ctrl.Tripped():
	default:
		t.Error("Tripped channel not closed after trip")
	}
}

func TestTrip_UnblocksPtyMasterRead(t *testing.T) {
	// The output pump blocks reading the pty master, not a pipe. Closing
	// the master must interrupt that read too, which only holds while the
	// descriptor stays registered with the runtime poller.
	session, err := pts.Allocate()
	if err != nil {
		t.Skipf("pseudo-terminal allocation unavailable: %v", err)
	}

	slave, err := os.OpenFile(session.SlavePath, os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		t.Fatalf("open slave: %v", err)
	}
	defer slave.Close()

	ctrl := New(nil, []io.Closer{session}, slog.Default())

	unblocked := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		_, err := session.Master.Read(buf)
		unblocked <- err
	}()
	time.Sleep(50 * time.Millisecond) // let the read block

	ctrl.trip()

	select {
	case err := <-unblocked:
		if err == nil {
			t.Error("expected an error from the forced-closed master read")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked master read did not unblock within bounded time")
	}
}

func TestTrip_RestoresTerminalFirst(t *testing.T) {
	var order []string
	restore := func() { order = append(order, "restore") }

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer w.Close()

	ctrl := New(restore, []io.Closer{closerFunc(func() error {
		order = append(order, "close")
		return r.Close()
	})}, slog.Default())
	ctrl.trip()

	if len(order) != 2 || order[0] != "restore" || order[1] != "close" {
		t.Errorf("teardown order = %v, want [restore close]", order)
	}
}

func TestTrip_IsOneWay(t *testing.T) {
	calls := 0
	ctrl := New(func() { calls++ }, nil, slog.Default())

	ctrl.trip()
	ctrl.trip()
	ctrl.trip()

	if calls != 1 {
		t.Errorf("restore ran %d times, want 1", calls)
	}
}

func TestArm_SignalTripsController(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer w.Close()
	defer r.Close()

	ctrl := New(nil, []io.Closer{r}, slog.Default())
	ctrl.Arm()

	// One signal from the quit set; after the trip the set returns to
	// default disposition, so exactly one is sent.
	if err := syscall.Kill(os.Getpid(), syscall.SIGALRM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-ctrl.Tripped():
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not trip on signal delivery")
	}
}

// closerFunc adapts a function to io.Closer for ordering assertions.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }
