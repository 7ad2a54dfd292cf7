package uninit

import (
	"xreflint/internal/core/errors"
	"xreflint/internal/engine/tokens"
)

// Mode is the checking mode of a scope. A scope only ever moves from Strict
// to Relaxed.
type Mode int

const (
	Strict Mode = iota
	Relaxed
)

func (m Mode) String() string {
	if m == Relaxed {
		return "relaxed"
	}
	return "strict"
}

// Status is the lifecycle state of a variable within one scope.
type Status int

const (
	Unknown Status = iota
	Assigned
	Used
)

type variable struct {
	name   string
	status Status
	// tok is the most recent occurrence, reported by the unused-value notice.
	tok        tokens.Token
	refParam   bool
	caught     bool
	global     bool
	persistent bool
}

// frame is a set of names known up to token index end.
type frame struct {
	end   int
	names map[string]bool
}

type scope struct {
	vars  map[string]*variable
	order []string
	mode  Mode
	// end is the token index of the closing brace; -1 for the file scope.
	end   int
	loops []frame
	// arrows holds the parameters of arrow functions whose body is being
	// scanned; they are not variables of the scope itself.
	arrows []frame
	// types maps variable names to classes named by @var annotations.
	types map[string]string
}

func newScope(mode Mode, end int) *scope {
	return &scope{vars: make(map[string]*variable), mode: mode, end: end}
}

func (s *scope) lookup(name string) (*variable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// touch returns the variable for tok, creating it as Unknown, and records
// tok as its latest occurrence.
func (s *scope) touch(tok tokens.Token) *variable {
	v, ok := s.vars[tok.Text]
	if !ok {
		v = &variable{name: tok.Text, status: Unknown}
		s.vars[tok.Text] = v
		s.order = append(s.order, tok.Text)
	}
	v.tok = tok
	return v
}

func (s *scope) inLoop(name string) bool {
	return inFrames(s.loops, name)
}

func (s *scope) inArrow(name string) bool {
	return inFrames(s.arrows, name)
}

func inFrames(frames []frame, name string) bool {
	for _, f := range frames {
		if f.names[name] {
			return true
		}
	}
	return false
}

// expire drops loop and arrow frames that end before index i.
func (s *scope) expire(i int) {
	s.loops = expireFrames(s.loops, i)
	s.arrows = expireFrames(s.arrows, i)
}

func expireFrames(frames []frame, i int) []frame {
	for len(frames) > 0 && i > frames[len(frames)-1].end {
		frames = frames[:len(frames)-1]
	}
	return frames
}

type pendingSwitch struct {
	trigger tokens.Token
	at      int
}

// scopes is the stack of live scopes. The bottom entry is the file scope.
type scopes struct {
	stack   []*scope
	pending *pendingSwitch
}

func newScopes() *scopes {
	return &scopes{stack: []*scope{newScope(Relaxed, -1)}}
}

func (ss *scopes) push(mode Mode, end int) *scope {
	s := newScope(mode, end)
	ss.stack = append(ss.stack, s)
	return s
}

func (ss *scopes) pop() (*scope, error) {
	if len(ss.stack) <= 1 {
		return nil, errors.New(errors.CodeMalformedSource, "scope stack underflow")
	}
	top := ss.stack[len(ss.stack)-1]
	ss.stack = ss.stack[:len(ss.stack)-1]
	return top, nil
}

func (ss *scopes) depth() int {
	return len(ss.stack)
}

// at returns the scope depth levels below the current one.
func (ss *scopes) at(depth int) *scope {
	if depth >= len(ss.stack) {
		return nil
	}
	return ss.stack[len(ss.stack)-1-depth]
}

func (ss *scopes) current() *scope {
	return ss.at(0)
}

func (ss *scopes) currentMode() Mode {
	return ss.current().mode
}

func (ss *scopes) fileScope() bool {
	return len(ss.stack) == 1
}

// scheduleRelaxedSwitch arranges for the then-current scope to become
// Relaxed once the scanner reaches index at. A later schedule replaces an
// earlier one.
func (ss *scopes) scheduleRelaxedSwitch(trigger tokens.Token, at int) {
	ss.pending = &pendingSwitch{trigger: trigger, at: at}
}

// due consumes the pending switch when index i has reached it and reports
// whether the current scope changed mode, along with the trigger token.
func (ss *scopes) due(i int) (tokens.Token, bool) {
	if ss.pending == nil || i < ss.pending.at {
		return tokens.Token{}, false
	}
	p := ss.pending
	ss.pending = nil
	cur := ss.current()
	if cur.mode == Relaxed {
		return p.trigger, false
	}
	cur.mode = Relaxed
	return p.trigger, true
}
