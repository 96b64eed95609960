package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func (l *testLogger) count(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.messages {
		if strings.HasPrefix(m, prefix) {
			n++
		}
	}
	return n
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register(":MARKERS:TEST:", func(e Event) (any, error) {
		got = e
		return "result", nil
	})

	result, err := d.Dispatch(Event{Command: ":MARKERS:TEST:", Args: []string{"arg1"}})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != "result" {
		t.Errorf("expected 'result', got %v", result)
	}
	if len(got.Args) != 1 || got.Args[0] != "arg1" {
		t.Errorf("args not passed through: %v", got.Args)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected dispatch to stamp the event")
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(Event{Command: ":MARKERS:NOPE:"})
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
	if !strings.Contains(err.Error(), ":MARKERS:NOPE:") {
		t.Errorf("error should name the command: %v", err)
	}
}

func TestDispatcher_HandlerErrorPassesThrough(t *testing.T) {
	d, _ := newTestDispatcher(t)
	want := errors.New("boom")

	d.Register(":MARKERS:FAIL:", func(e Event) (any, error) {
		return nil, want
	})

	_, err := d.Dispatch(Event{Command: ":MARKERS:FAIL:"})
	if !errors.Is(err, want) {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(":MARKERS:TEST:", func(e Event) (any, error) {
		return nil, nil
	}, Logged())

	if _, err := d.Dispatch(Event{Command: ":MARKERS:TEST:"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := logger.count("DEBUG"); n != 2 {
		t.Errorf("expected 2 debug messages, got %d", n)
	}
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(":MARKERS:TEST:", func(e Event) (any, error) {
		return nil, errors.New("test error")
	}, Logged())

	if _, err := d.Dispatch(Event{Command: ":MARKERS:TEST:"}); err == nil {
		t.Fatal("expected error")
	}

	if logger.count("ERROR") != 1 {
		t.Error("expected error to be logged")
	}
}

func TestDispatcher_UnloggedHandlerIsQuiet(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(":MARKERS:TEST:", func(e Event) (any, error) {
		return nil, errors.New("test error")
	})
	_, _ = d.Dispatch(Event{Command: ":MARKERS:TEST:"})

	if len(logger.messages) != 0 {
		t.Errorf("expected no log output, got %v", logger.messages)
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	if d.HasHandler(":MARKERS:TEST:") {
		t.Error("expected no handler before registration")
	}

	d.Register(":MARKERS:TEST:", func(e Event) (any, error) { return nil, nil })

	if !d.HasHandler(":MARKERS:TEST:") {
		t.Error("expected handler after registration")
	}
}

func TestDispatcher_Commands(t *testing.T) {
	d, _ := newTestDispatcher(t)
	noop := func(e Event) (any, error) { return nil, nil }

	d.Register(":MARKERS:PLACE:", noop, Usage("x,y,z [text]"))
	d.Register(":MARKERS:LIST:", noop, Logged())

	cmds := d.Commands()
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].Name != ":MARKERS:LIST:" || cmds[1].Name != ":MARKERS:PLACE:" {
		t.Errorf("commands not sorted: %v", cmds)
	}
	if cmds[0].Usage != "" || cmds[1].Usage != "x,y,z [text]" {
		t.Errorf("unexpected usage strings: %v", cmds)
	}
}

func TestDispatcher_ReregisterReplaces(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register(":MARKERS:TEST:", func(e Event) (any, error) { return 1, nil })
	d.Register(":MARKERS:TEST:", func(e Event) (any, error) { return 2, nil })

	result, _ := d.Dispatch(Event{Command: ":MARKERS:TEST:"})
	if result != 2 {
		t.Errorf("expected replacement handler, got %v", result)
	}
}

func TestDispatcher_ConcurrentDispatch(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var mu sync.Mutex
	count := 0
	d.Register(":MARKERS:TEST:", func(e Event) (any, error) {
		mu.Lock()
		count++
		mu.Unlock()
		return nil, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Dispatch(Event{Command: ":MARKERS:TEST:"})
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Errorf("expected 50 calls, got %d", count)
	}
}
