package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cocobolo/uitest/internal/errs"
	"github.com/cocobolo/uitest/internal/obs"
)

// Call is one invocation of a named command.
type Call struct {
	Command string
	Args    json.RawMessage

	// Seq is the 1-based invocation number for this command, after any
	// configured auto-reset.
	Seq int
}

// Handler computes a response from a call. Handlers run under the dispatcher
// lock and must not invoke commands themselves.
type Handler func(ctx context.Context, call Call) (any, error)

type stubKind int

const (
	stubValue stubKind = iota
	stubSequence
	stubFunc
	stubError
)

type stub struct {
	kind   stubKind
	value  any
	seq    []any
	seqIdx int
	fn     Handler
	err    error
}

// Dispatcher routes named commands to stubbed or default behaviors, tracking
// call counts and gating session-scoped commands on the active session token.
type Dispatcher struct {
	mu         sync.Mutex
	clock      Clock
	fx         *Fixtures
	stubs      map[string]*stub
	latency    map[string]time.Duration
	calls      map[string]int
	resetAfter map[string]int
	defaults   map[string]Handler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock substitutes the dispatcher clock, typically a FakeClock in tests.
func WithClock(c Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithFixtures substitutes the starting fixture set.
func WithFixtures(fx *Fixtures) Option {
	return func(d *Dispatcher) { d.fx = fx }
}

// New creates a dispatcher with default fixtures and behaviors.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		clock:      RealClock{},
		fx:         DefaultFixtures(),
		stubs:      make(map[string]*stub),
		latency:    make(map[string]time.Duration),
		calls:      make(map[string]int),
		resetAfter: make(map[string]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.registerDefaults()
	return d
}

// sessionGated lists commands that require the active session. The session
// lifecycle commands themselves (close, status check) are deliberately absent:
// they answer for stale tokens too.
var sessionGated = map[string]bool{
	"get_notes_list":   true,
	"create_note":      true,
	"load_note":        true,
	"save_note":        true,
	"delete_note":      true,
	"move_note":        true,
	"get_folders_list": true,
	"create_folder":    true,
	"delete_folder":    true,
	"move_folder":      true,
	"rename_folder":    true,
}

// Invoke dispatches a command. Configured latency is applied first and honors
// ctx cancellation. Session-gated commands reject mismatched session tokens
// before any stub or default behavior runs.
func (d *Dispatcher) Invoke(ctx context.Context, command string, args json.RawMessage) (any, error) {
	d.mu.Lock()
	d.calls[command]++
	seq := d.calls[command]
	if n := d.resetAfter[command]; n > 0 && seq >= n {
		d.calls[command] = 0
	}
	delay := d.latency[command]
	d.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if sessionGated[command] {
		if err := d.checkSessionLocked(args); err != nil {
			obs.From(ctx).Debug("session gate rejected invoke", "seq", seq)
			return nil, err
		}
	}

	call := Call{Command: command, Args: args, Seq: seq}

	if s, ok := d.stubs[command]; ok {
		return s.respond(ctx, call)
	}

	h, ok := d.defaults[command]
	if !ok {
		return nil, errs.New(errs.UnknownCommand, fmt.Sprintf("unknown command %q", command))
	}
	return h(ctx, call)
}

func (s *stub) respond(ctx context.Context, call Call) (any, error) {
	switch s.kind {
	case stubError:
		return nil, s.err
	case stubValue:
		return s.value, nil
	case stubSequence:
		v := s.seq[s.seqIdx]
		if s.seqIdx < len(s.seq)-1 {
			s.seqIdx++
		}
		return v, nil
	case stubFunc:
		return s.fn(ctx, call)
	}
	return nil, errs.New(errs.Internal, "misconfigured stub")
}

func (d *Dispatcher) checkSessionLocked(args json.RawMessage) error {
	var sess sessionArgs
	if err := json.Unmarshal(args, &sess); err != nil {
		return errs.Wrap(errs.InvalidArgument, "malformed command arguments", err)
	}
	if d.fx.Session == "" || sess.SessionID != d.fx.Session {
		return errs.New(errs.SessionExpired, "Session expired. Please unlock vault again.")
	}
	return nil
}

// StubValue makes every call to command return v.
func (d *Dispatcher) StubValue(command string, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stubs[command] = &stub{kind: stubValue, value: v}
}

// StubSequence makes calls to command return each value in order, then repeat
// the last value.
func (d *Dispatcher) StubSequence(command string, values ...any) {
	if len(values) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stubs[command] = &stub{kind: stubSequence, seq: values}
}

// StubFunc computes responses from the call (args and invocation counter).
func (d *Dispatcher) StubFunc(command string, fn Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stubs[command] = &stub{kind: stubFunc, fn: fn}
}

// StubError makes every call to command fail with err.
func (d *Dispatcher) StubError(command string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stubs[command] = &stub{kind: stubError, err: err}
}

// Unstub removes the stub for command, restoring the default behavior.
func (d *Dispatcher) Unstub(command string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.stubs, command)
}

// SetLatency delays every call to command by delay before responding.
func (d *Dispatcher) SetLatency(command string, delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if delay <= 0 {
		delete(d.latency, command)
		return
	}
	d.latency[command] = delay
}

// CallCount returns the number of calls made to command since the last reset.
func (d *Dispatcher) CallCount(command string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[command]
}

// ResetCalls zeroes the call count for command.
func (d *Dispatcher) ResetCalls(command string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.calls, command)
}

// ResetAllCalls zeroes every call count, leaving fixtures, stubs, latency, and
// thresholds in place.
func (d *Dispatcher) ResetAllCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = make(map[string]int)
}

// SetResetThreshold auto-zeroes the call count for command once it reaches n.
// n <= 0 disables the threshold.
func (d *Dispatcher) SetResetThreshold(command string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n <= 0 {
		delete(d.resetAfter, command)
		return
	}
	d.resetAfter[command] = n
}

// Reset restores default fixtures and clears stubs, latency, thresholds, and
// call counts. Tests call this between scenarios.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fx = DefaultFixtures()
	d.stubs = make(map[string]*stub)
	d.latency = make(map[string]time.Duration)
	d.calls = make(map[string]int)
	d.resetAfter = make(map[string]int)
}

// ActiveSession returns the current session token, empty while locked.
func (d *Dispatcher) ActiveSession() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fx.Session
}

// MutateFixtures runs fn against the fixture state under the dispatcher lock.
func (d *Dispatcher) MutateFixtures(fn func(*Fixtures)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.fx)
}

// SeedNote appends a note to the fixtures without going through the command
// surface, returning its id. Empty folder means the vault root.
func (d *Dispatcher) SeedNote(title, content string, tags []string, folder string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now().UTC()
	note := Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		NoteType:  defaultNoteType,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      append([]string{}, tags...),
	}
	if folder != "" {
		note.FolderPath = &folder
	}
	d.fx.Notes = append(d.fx.Notes, note)
	return note.ID
}

func decodeArgs[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, errs.Wrap(errs.InvalidArgument, "malformed command arguments", err)
	}
	return v, nil
}
