package caption

import (
	"sync"
	"testing"
	"time"
)

func TestSlot_ZeroValueIsUnpublished(t *testing.T) {
	s := NewSlot()
	c := s.Load()
	if c.Text != "" {
		t.Errorf("Text = %q, want empty", c.Text)
	}
	if !c.At.IsZero() {
		t.Errorf("At = %v, want zero", c.At)
	}
}

func TestSlot_PublishLoadPair(t *testing.T) {
	s := NewSlot()
	at := time.Now()
	s.Publish("hello", at)

	c := s.Load()
	if c.Text != "hello" {
		t.Errorf("Text = %q, want %q", c.Text, "hello")
	}
	if !c.At.Equal(at) {
		t.Errorf("At = %v, want %v", c.At, at)
	}
}

func TestSlot_ReadersNeverSeeTornPairs(t *testing.T) {
	// Each publish writes a caption whose timestamp encodes its text; a
	// reader observing a mismatched pair means the update was torn.
	s := NewSlot()
	base := time.Unix(1000, 0)
	pairs := map[string]time.Time{
		"a": base.Add(1 * time.Second),
		"b": base.Add(2 * time.Second),
		"c": base.Add(3 * time.Second),
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			for text, at := range pairs {
				s.Publish(text, at)
			}
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				c := s.Load()
				if c.Text == "" {
					continue
				}
				want, ok := pairs[c.Text]
				if !ok || !c.At.Equal(want) {
					t.Errorf("torn read: text=%q at=%v", c.Text, c.At)
					return
				}
			}
		}()
	}

	wg.Wait()
}
