package copycode

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"
)

func TestInjectLabelsEveryBlock(t *testing.T) {
	a := NewPre("one", true)
	b := NewPre("", false)

	buttons := NewInjector(&MemClipboard{}).Inject(context.Background(), []Block{a, b})
	if len(buttons) != 2 {
		t.Fatalf("buttons = %d, want 2", len(buttons))
	}
	for i, p := range []*Pre{a, b} {
		if p.Button() == nil {
			t.Fatalf("block %d has no button", i)
		}
		if p.Button().Label() != LabelCopy {
			t.Errorf("block %d label = %q, want %q", i, p.Button().Label(), LabelCopy)
		}
	}
}

func TestClickCopiesAndResets(t *testing.T) {
	clip := &MemClipboard{}
	in := NewInjector(clip)

	var pending func()
	var delay time.Duration
	in.after = func(d time.Duration, f func()) {
		delay = d
		pending = f
	}

	pre := NewPre("fmt.Println(\"hi\")", true)
	in.Inject(context.Background(), []Block{pre})
	pre.Button().Click()

	if clip.Text() != "fmt.Println(\"hi\")" {
		t.Errorf("clipboard = %q", clip.Text())
	}
	if pre.Button().Label() != LabelCopied {
		t.Errorf("label = %q, want %q", pre.Button().Label(), LabelCopied)
	}
	if delay != DefaultResetAfter {
		t.Errorf("reset delay = %v, want %v", delay, DefaultResetAfter)
	}
	if pending == nil {
		t.Fatal("no reset scheduled")
	}

	pending()
	if pre.Button().Label() != LabelCopy {
		t.Errorf("label after reset = %q, want %q", pre.Button().Label(), LabelCopy)
	}
}

func TestClickWithoutCodeDoesNothing(t *testing.T) {
	clip := &MemClipboard{}
	in := NewInjector(clip)
	in.after = func(time.Duration, func()) { t.Error("unexpected reset scheduled") }

	pre := NewPre("ignored", false)
	in.Inject(context.Background(), []Block{pre})
	pre.Button().Click()

	if clip.Text() != "" {
		t.Errorf("clipboard = %q, want empty", clip.Text())
	}
	if pre.Button().Label() != LabelCopy {
		t.Errorf("label = %q, want %q", pre.Button().Label(), LabelCopy)
	}
}

func TestClickClipboardFailure(t *testing.T) {
	var logs bytes.Buffer
	in := NewInjector(&MemClipboard{Err: errors.New("permission denied")})
	in.Logger = log.New(&logs, "", 0)
	in.after = func(time.Duration, func()) { t.Error("unexpected reset scheduled") }

	pre := NewPre("x", true)
	in.Inject(context.Background(), []Block{pre})
	pre.Button().Click()

	if pre.Button().Label() != LabelError {
		t.Errorf("label = %q, want %q", pre.Button().Label(), LabelError)
	}
	if !strings.Contains(logs.String(), "Failed to copy: permission denied") {
		t.Errorf("log = %q", logs.String())
	}
}

func TestResetWithRealTimer(t *testing.T) {
	in := NewInjector(&MemClipboard{})
	in.ResetAfter = 10 * time.Millisecond

	pre := NewPre("x", true)
	in.Inject(context.Background(), []Block{pre})
	pre.Button().Click()

	deadline := time.Now().Add(2 * time.Second)
	for pre.Button().Label() != LabelCopy {
		if time.Now().After(deadline) {
			t.Fatalf("label still %q after deadline", pre.Button().Label())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
