package diagnostics

import (
	"testing"
	"time"
)

func TestCollectorInstanceIDStable(t *testing.T) {
	t.Parallel()
	c := NewCollector()

	if c.InstanceID() == "" {
		t.Fatal("instance id must not be empty")
	}
	a := c.Collect()
	b := c.Collect()
	if a.InstanceID != b.InstanceID {
		t.Errorf("instance id changed between collects: %s vs %s", a.InstanceID, b.InstanceID)
	}
	if a.InstanceID != c.InstanceID() {
		t.Errorf("snapshot id %s differs from collector id %s", a.InstanceID, c.InstanceID())
	}
}

func TestCollectorsAreDistinct(t *testing.T) {
	t.Parallel()
	if NewCollector().InstanceID() == NewCollector().InstanceID() {
		t.Error("two collectors share an instance id")
	}
}

func TestCollectSnapshot(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	time.Sleep(10 * time.Millisecond)
	st := c.Collect()

	if st.Goroutines <= 0 {
		t.Errorf("goroutines = %d, want > 0", st.Goroutines)
	}
	if st.UptimeSecs <= 0 {
		t.Errorf("uptime = %f, want > 0", st.UptimeSecs)
	}
	if st.StartedAt.IsZero() {
		t.Error("started_at must be set")
	}
}
