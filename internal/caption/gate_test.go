package caption

import (
	"testing"
	"time"
)

func TestGate_HiddenWhenNeverPublished(t *testing.T) {
	g := NewGate(NewSlot(), 0)
	visible, text := g.ShouldDisplay(time.Now())
	if visible || text != "" {
		t.Errorf("ShouldDisplay = (%v, %q), want (false, \"\")", visible, text)
	}
}

func TestGate_HiddenWhenTextEmpty(t *testing.T) {
	s := NewSlot()
	s.Publish("", time.Now())
	g := NewGate(s, 0)
	if visible, _ := g.ShouldDisplay(time.Now()); visible {
		t.Error("empty text must not be visible")
	}
}

func TestGate_StalenessThreshold(t *testing.T) {
	published := time.Unix(5000, 0)

	tests := []struct {
		name    string
		age     time.Duration
		visible bool
	}{
		{"immediately", 0, true},
		{"one second", time.Second, true},
		{"exactly at threshold", 3 * time.Second, true},
		{"just past threshold", 3*time.Second + time.Millisecond, false},
		{"long stale", time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSlot()
			s.Publish("live caption", published)
			g := NewGate(s, 3*time.Second)

			visible, text := g.ShouldDisplay(published.Add(tt.age))
			if visible != tt.visible {
				t.Errorf("visible = %v, want %v", visible, tt.visible)
			}
			if tt.visible && text != "live caption" {
				t.Errorf("text = %q, want %q", text, "live caption")
			}
			if !tt.visible && text != "" {
				t.Errorf("hidden caption leaked text %q", text)
			}
		})
	}
}

func TestGate_DefaultThreshold(t *testing.T) {
	g := NewGate(NewSlot(), 0)
	if g.StaleAfter() != DefaultStaleAfter {
		t.Errorf("StaleAfter = %v, want %v", g.StaleAfter(), DefaultStaleAfter)
	}
}

func TestGate_RecoversAfterNewPublish(t *testing.T) {
	s := NewSlot()
	g := NewGate(s, 3*time.Second)

	t0 := time.Unix(5000, 0)
	s.Publish("old", t0)
	if visible, _ := g.ShouldDisplay(t0.Add(10 * time.Second)); visible {
		t.Fatal("stale caption should be hidden")
	}

	s.Publish("new", t0.Add(10*time.Second))
	visible, text := g.ShouldDisplay(t0.Add(11 * time.Second))
	if !visible || text != "new" {
		t.Errorf("ShouldDisplay = (%v, %q), want (true, \"new\")", visible, text)
	}
}
