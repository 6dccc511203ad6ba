package interview

import (
	"context"
	"fmt"
	"sync"

	"interviewer/logger"
)

// Policy decides role-conditional branching for full interviews.
type Policy interface {
	RequiresCoding(role string) bool
}

// PhasesFor returns the phase order of a full interview for role.
func PhasesFor(role string, policy Policy) []Kind {
	if policy != nil && !policy.RequiresCoding(role) {
		return []Kind{KindTechnical, KindBehavioral}
	}
	return []Kind{KindTechnical, KindCoding, KindBehavioral}
}

// Composite sequences one Session per phase. It only moves to the next phase
// after the active session reports it has no more questions.
type Composite struct {
	role     string
	phases   []Kind
	sessions map[Kind]*Session

	mu     sync.Mutex
	active int
	done   bool
}

func NewComposite(role string, rounds int, resume string, policy Policy, deps Deps) (*Composite, error) {
	phases := PhasesFor(role, policy)
	sessions := make(map[Kind]*Session, len(phases))

	for _, phase := range phases {
		s, err := NewSession(phase, role, rounds, resume, deps)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s phase: %w", phase, err)
		}
		sessions[phase] = s
	}

	return &Composite{
		role:     role,
		phases:   phases,
		sessions: sessions,
	}, nil
}

func (c *Composite) handle() {}

func (c *Composite) Role() string { return c.role }

func (c *Composite) Phases() []Kind {
	return append([]Kind(nil), c.phases...)
}

func (c *Composite) ActivePhase() Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phases[c.active]
}

// Active returns the session of the active phase; after the last phase it
// stays on that phase's session.
func (c *Composite) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[c.phases[c.active]]
}

// Session returns the session of a phase, or nil if the phase is not part of
// this interview.
func (c *Composite) Session(phase Kind) *Session {
	return c.sessions[phase]
}

// Sessions returns the phase sessions in phase order.
func (c *Composite) Sessions() []*Session {
	out := make([]*Session, len(c.phases))
	for i, phase := range c.phases {
		out[i] = c.sessions[phase]
	}
	return out
}

func (c *Composite) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Composite) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return StateComplete
	}
	if c.active == 0 {
		if c.sessions[c.phases[0]].State() == StateNotStarted {
			return StateNotStarted
		}
	}
	return StateInProgress
}

// AskQuestion asks the active phase. When that phase is exhausted the
// coordinator advances and returns the next phase's opening question,
// prefixed with its announcement. After the last phase it returns false.
func (c *Composite) AskQuestion(ctx context.Context) (string, bool) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return "", false
	}
	phase := c.phases[c.active]
	session := c.sessions[phase]
	c.mu.Unlock()

	if question, ok := session.AskQuestion(ctx); ok {
		return question, true
	}

	next := c.advance(phase)
	if next == nil {
		return "", false
	}

	question, ok := next.AskQuestion(ctx)
	if !ok {
		return "", false
	}
	if next.Round() == 1 {
		return next.PhaseIntro() + " " + question, true
	}
	return question, true
}

// advance moves past from if it is still the active phase and returns the
// session now active, or nil when the interview is over.
func (c *Composite) advance(from Kind) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return nil
	}

	if c.phases[c.active] == from {
		if c.active == len(c.phases)-1 {
			c.done = true
			logger.Infof("Full interview for role %q completed all %d phases", c.role, len(c.phases))
			return nil
		}
		c.active++
		logger.Infof("Full interview for role %q moved from %s to %s phase", c.role, from, c.phases[c.active])
	}

	return c.sessions[c.phases[c.active]]
}

func (c *Composite) ProvideAnswer(answer string) error {
	return c.Active().ProvideAnswer(answer)
}

// History returns the active phase's history.
func (c *Composite) History() []QA {
	return c.Active().History()
}

// FullHistory concatenates every phase's history in phase order.
func (c *Composite) FullHistory() []QA {
	var all []QA
	for _, s := range c.Sessions() {
		all = append(all, s.History()...)
	}
	return all
}

func (c *Composite) RecordMetrics(confidence, focus float64) {
	c.Active().RecordMetrics(confidence, focus)
}
