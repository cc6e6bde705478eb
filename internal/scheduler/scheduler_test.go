// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// waitForFires polls until n reaches want or the deadline passes.
func waitForFires(t *testing.T, n *atomic.Int32, want int32, within time.Duration) {
	t.Helper()
	deadline := time.After(within)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatalf("job did not fire %d times within %s, fires=%d", want, within, n.Load())
		case <-ticker.C:
			if n.Load() >= want {
				return
			}
		}
	}
}

func TestSchedulerFiresJob(t *testing.T) {
	var fires atomic.Int32
	sched := New(0, Job{
		Name:     "every-second",
		Schedule: "* * * * * *",
		Run: func(ctx context.Context) error {
			fires.Add(1)
			return nil
		},
	})
	if err := sched.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	waitForFires(t, &fires, 1, 2500*time.Millisecond)
}

func TestSchedulerSkipsDisabled(t *testing.T) {
	var fires atomic.Int32
	sched := New(0, Job{
		Name: "disabled",
		Run: func(ctx context.Context) error {
			fires.Add(1)
			return nil
		},
	})
	if err := sched.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	time.Sleep(1500 * time.Millisecond)
	if n := fires.Load(); n != 0 {
		t.Errorf("expected 0 fires for job with no schedule, got %d", n)
	}
}

func TestSchedulerKeepsRunningAfterFailure(t *testing.T) {
	var fires atomic.Int32
	sched := New(0, Job{
		Name:     "flaky",
		Schedule: "@every 1s",
		Run: func(ctx context.Context) error {
			fires.Add(1)
			return errors.New("backend down")
		},
	})
	if err := sched.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	waitForFires(t, &fires, 2, 3500*time.Millisecond)
}

func TestSchedulerRunTimeout(t *testing.T) {
	deadlines := make(chan bool, 1)
	sched := New(50*time.Millisecond, Job{
		Name:     "slow",
		Schedule: "* * * * * *",
		Run: func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			<-ctx.Done()
			select {
			case deadlines <- ok:
			default:
			}
			return ctx.Err()
		},
	})
	if err := sched.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	select {
	case ok := <-deadlines:
		if !ok {
			t.Error("expected the run context to carry a deadline")
		}
	case <-time.After(2500 * time.Millisecond):
		t.Fatal("job did not run")
	}
}

func TestSchedulerStopCancelsRunningJob(t *testing.T) {
	started := make(chan struct{}, 1)
	sched := New(0, Job{
		Name:     "blocking",
		Schedule: "* * * * * *",
		Run: func(ctx context.Context) error {
			select {
			case started <- struct{}{}:
			default:
			}
			<-ctx.Done()
			return ctx.Err()
		},
	})
	if err := sched.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-started:
	case <-time.After(2500 * time.Millisecond):
		t.Fatal("job did not start")
	}

	stopped := make(chan struct{})
	go func() {
		sched.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		schedule string
		wantErr  bool
	}{
		{"", false},
		{"@every 1m", false},
		{"*/5 * * * *", false},
		{"0 */5 * * * *", false},
		{"not a schedule", true},
		{"61 * * * *", true},
	}
	for _, tt := range tests {
		err := Validate([]Job{{Name: "j", Schedule: tt.schedule}})
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) error = %v, wantErr %v", tt.schedule, err, tt.wantErr)
		}
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	sched := New(0, Job{Name: "bad", Schedule: "whenever", Run: func(ctx context.Context) error { return nil }})
	if err := sched.Start(context.Background()); err == nil {
		sched.Stop()
		t.Fatal("expected error for invalid schedule")
	}
}
