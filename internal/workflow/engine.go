package workflow

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

const (
	// EntityTypePage identifies pages in transition requests.
	EntityTypePage = "page"

	StateDraft     interfaces.WorkflowState = "draft"
	StatePublished interfaces.WorkflowState = "published"

	TransitionPublish   = "publish"
	TransitionUnpublish = "unpublish"
)

var (
	ErrUnknownEntityType   = errors.New("workflow: entity type not registered")
	ErrInvalidTransition   = errors.New("workflow: transition not allowed")
	ErrMissingTransition   = errors.New("workflow: transition name required")
	ErrEntityIDRequired    = errors.New("workflow: entity id required")
	ErrDefinitionInvalid   = errors.New("workflow: invalid definition")
	ErrDuplicateTransition = errors.New("workflow: duplicate transition for state")
)

// Engine is an in-memory state machine over registered definitions.
type Engine struct {
	mu          sync.RWMutex
	definitions map[string]*compiled
	now         func() time.Time
}

var _ interfaces.WorkflowEngine = (*Engine)(nil)

// Option configures the engine.
type Option func(*Engine)

// WithClock overrides the timestamp source for transition results.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// New returns an engine seeded with the page publish workflow.
func New(opts ...Option) *Engine {
	engine := &Engine{
		definitions: make(map[string]*compiled),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}
	if err := engine.RegisterWorkflow(context.Background(), PageWorkflow()); err != nil {
		panic(err)
	}
	return engine
}

// PageWorkflow is draft -> published -> draft. Publishing a published page
// refreshes its live snapshot.
func PageWorkflow() interfaces.WorkflowDefinition {
	return interfaces.WorkflowDefinition{
		EntityType:   EntityTypePage,
		InitialState: StateDraft,
		States: []interfaces.WorkflowStateDefinition{
			{Name: StateDraft, Description: "Editable, not served"},
			{Name: StatePublished, Description: "Serving the last published snapshot"},
		},
		Transitions: []interfaces.WorkflowTransition{
			{Name: TransitionPublish, From: StateDraft, To: StatePublished},
			{Name: TransitionPublish, From: StatePublished, To: StatePublished, Description: "republish"},
			{Name: TransitionUnpublish, From: StatePublished, To: StateDraft},
		},
	}
}

// Transition resolves the named transition from the current state.
func (e *Engine) Transition(_ context.Context, input interfaces.TransitionInput) (*interfaces.TransitionResult, error) {
	if strings.TrimSpace(input.EntityID) == "" {
		return nil, ErrEntityIDRequired
	}
	definition, err := e.definitionFor(input.EntityType)
	if err != nil {
		return nil, err
	}

	current := normalizeState(input.CurrentState, definition.definition.InitialState)
	name := strings.ToLower(strings.TrimSpace(input.Transition))
	var transition interfaces.WorkflowTransition
	switch {
	case name != "":
		transition, err = definition.lookup(name, current)
	case strings.TrimSpace(string(input.TargetState)) != "":
		transition, err = definition.lookupByStates(current, normalizeState(input.TargetState, ""))
	default:
		err = ErrMissingTransition
	}
	if err != nil {
		return nil, err
	}

	return &interfaces.TransitionResult{
		EntityID:    input.EntityID,
		EntityType:  input.EntityType,
		Transition:  transition.Name,
		FromState:   current,
		ToState:     transition.To,
		CompletedAt: e.now(),
		Metadata:    maps.Clone(input.Metadata),
	}, nil
}

// AvailableTransitions lists the transitions leaving query.State.
func (e *Engine) AvailableTransitions(_ context.Context, query interfaces.TransitionQuery) ([]interfaces.WorkflowTransition, error) {
	definition, err := e.definitionFor(query.EntityType)
	if err != nil {
		return nil, err
	}
	state := normalizeState(query.State, definition.definition.InitialState)
	return append([]interfaces.WorkflowTransition(nil), definition.byState[state]...), nil
}

// RegisterWorkflow validates and installs definition, replacing any previous
// definition for the same entity type.
func (e *Engine) RegisterWorkflow(_ context.Context, definition interfaces.WorkflowDefinition) error {
	c, err := compile(definition)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.definitions[c.definition.EntityType] = c
	return nil
}

func (e *Engine) definitionFor(entityType string) (*compiled, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	definition, ok := e.definitions[strings.ToLower(strings.TrimSpace(entityType))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, entityType)
	}
	return definition, nil
}

type compiled struct {
	definition  interfaces.WorkflowDefinition
	transitions map[string]interfaces.WorkflowTransition
	byState     map[interfaces.WorkflowState][]interfaces.WorkflowTransition
}

func compile(definition interfaces.WorkflowDefinition) (*compiled, error) {
	definition.EntityType = strings.ToLower(strings.TrimSpace(definition.EntityType))
	if definition.EntityType == "" {
		return nil, fmt.Errorf("%w: entity type required", ErrDefinitionInvalid)
	}
	states := make(map[interfaces.WorkflowState]struct{}, len(definition.States))
	for i, state := range definition.States {
		name := normalizeState(state.Name, "")
		if name == "" {
			return nil, fmt.Errorf("%w: state %d has no name", ErrDefinitionInvalid, i)
		}
		states[name] = struct{}{}
	}
	definition.InitialState = normalizeState(definition.InitialState, "")
	if _, ok := states[definition.InitialState]; !ok {
		return nil, fmt.Errorf("%w: initial state %q not declared", ErrDefinitionInvalid, definition.InitialState)
	}

	c := &compiled{
		definition:  definition,
		transitions: make(map[string]interfaces.WorkflowTransition, len(definition.Transitions)),
		byState:     make(map[interfaces.WorkflowState][]interfaces.WorkflowTransition),
	}
	for _, transition := range definition.Transitions {
		transition.Name = strings.ToLower(strings.TrimSpace(transition.Name))
		transition.From = normalizeState(transition.From, "")
		transition.To = normalizeState(transition.To, "")
		if transition.Name == "" {
			return nil, fmt.Errorf("%w: transition name required", ErrDefinitionInvalid)
		}
		for _, state := range []interfaces.WorkflowState{transition.From, transition.To} {
			if _, ok := states[state]; !ok {
				return nil, fmt.Errorf("%w: transition %s references unknown state %q", ErrDefinitionInvalid, transition.Name, state)
			}
		}
		key := transitionKey(transition.Name, transition.From)
		if _, exists := c.transitions[key]; exists {
			return nil, fmt.Errorf("%w: %s from %s", ErrDuplicateTransition, transition.Name, transition.From)
		}
		c.transitions[key] = transition
		c.byState[transition.From] = append(c.byState[transition.From], transition)
	}
	return c, nil
}

func (c *compiled) lookup(name string, from interfaces.WorkflowState) (interfaces.WorkflowTransition, error) {
	transition, ok := c.transitions[transitionKey(name, from)]
	if !ok {
		return interfaces.WorkflowTransition{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, name, from)
	}
	return transition, nil
}

func (c *compiled) lookupByStates(from, to interfaces.WorkflowState) (interfaces.WorkflowTransition, error) {
	for _, candidate := range c.byState[from] {
		if candidate.To == to {
			return candidate, nil
		}
	}
	return interfaces.WorkflowTransition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func transitionKey(name string, from interfaces.WorkflowState) string {
	return name + "::" + string(from)
}

func normalizeState(state, fallback interfaces.WorkflowState) interfaces.WorkflowState {
	normalized := interfaces.WorkflowState(strings.ToLower(strings.TrimSpace(string(state))))
	if normalized == "" {
		return interfaces.WorkflowState(strings.ToLower(strings.TrimSpace(string(fallback))))
	}
	return normalized
}
