package proximity

import "testing"

func TestGate_Wrap(t *testing.T) {
	tests := []struct {
		name     string
		busy     bool
		more     bool
		wantFire bool
	}{
		{"idle with more data", false, true, true},
		{"fetch in flight", true, true, false},
		{"collection exhausted", false, false, false},
		{"in flight and exhausted", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fired := false
			gate := NewGate(
				func() bool { return tt.busy },
				func() bool { return tt.more },
			)
			gate.Wrap(func() { fired = true })()

			if fired != tt.wantFire {
				t.Errorf("fired = %v, want %v", fired, tt.wantFire)
			}
		})
	}

	t.Run("nil predicates do not gate", func(t *testing.T) {
		fired := false
		NewGate(nil, nil).Wrap(func() { fired = true })()
		if !fired {
			t.Errorf("nil-predicate gate blocked the callback")
		}
	})
}

func TestOffsetTrigger(t *testing.T) {
	t.Run("fires when marker enters the expanded region", func(t *testing.T) {
		trig := NewOffsetTrigger()
		fired := 0
		trig.Observe(Marker{Offset: 1000}, 200, func() { fired++ })

		trig.Report(0, 400) // region [0,400], expanded [−200,600]: no
		if fired != 0 {
			t.Fatalf("fired early at offset 0")
		}

		trig.Report(500, 400) // expanded [300,1100]: marker 1000 inside
		if fired != 1 {
			t.Fatalf("fired = %d after marker entered, want 1", fired)
		}

		// Still inside: no repeat until it leaves and re-enters.
		trig.Report(550, 400)
		if fired != 1 {
			t.Errorf("fired = %d while marker stayed visible, want 1", fired)
		}

		trig.Report(0, 400) // marker leaves
		trig.Report(600, 400)
		if fired != 2 {
			t.Errorf("fired = %d after re-entry, want 2", fired)
		}
	})

	t.Run("already visible marker fires on registration", func(t *testing.T) {
		trig := NewOffsetTrigger()
		trig.Report(900, 400)

		fired := 0
		trig.Observe(Marker{Offset: 1000}, 0, func() { fired++ })
		if fired != 1 {
			t.Errorf("fired = %d on registering a visible marker, want 1", fired)
		}
	})

	t.Run("unregister stops delivery", func(t *testing.T) {
		trig := NewOffsetTrigger()
		fired := 0
		unregister := trig.Observe(Marker{Offset: 100}, 0, func() { fired++ })
		unregister()

		trig.Report(0, 400)
		if fired != 0 {
			t.Errorf("fired = %d after unregister, want 0", fired)
		}
	})
}
