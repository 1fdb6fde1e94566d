package interfaces

import (
	"context"
	"time"
)

// WorkflowState is a page lifecycle stage such as draft or published.
type WorkflowState string

// WorkflowEngine decides which publish transitions a page may take. The
// editing service consults it before every publish or unpublish.
type WorkflowEngine interface {
	// Transition validates a named transition or an explicit target state.
	Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error)
	AvailableTransitions(ctx context.Context, query TransitionQuery) ([]WorkflowTransition, error)
	RegisterWorkflow(ctx context.Context, definition WorkflowDefinition) error
}

// TransitionInput names the page, its current state and the requested move.
type TransitionInput struct {
	EntityID     string
	EntityType   string
	CurrentState WorkflowState
	Transition   string
	TargetState  WorkflowState
	Metadata     map[string]any
}

// TransitionResult is an accepted transition.
type TransitionResult struct {
	EntityID    string
	EntityType  string
	Transition  string
	FromState   WorkflowState
	ToState     WorkflowState
	CompletedAt time.Time
	Metadata    map[string]any
}

type TransitionQuery struct {
	EntityType string
	State      WorkflowState
}

// WorkflowDefinition is the state machine for one entity type.
type WorkflowDefinition struct {
	EntityType   string
	InitialState WorkflowState
	States       []WorkflowStateDefinition
	Transitions  []WorkflowTransition
}

type WorkflowStateDefinition struct {
	Name        WorkflowState
	Description string
	Terminal    bool
}

// WorkflowTransition is an allowed edge between two states.
type WorkflowTransition struct {
	Name        string
	Description string
	From        WorkflowState
	To          WorkflowState
}
