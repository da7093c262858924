package game

// EffectID names one ability of a card, e.g. "main".
type EffectID = string

// Effect is the per-card behavior. Every card instance owns its own Effect,
// created from its archetype and cloned when the card is copied.
type Effect interface {
	// EventFilter lists the events Activate wants to see.
	EventFilter() EventFilter
	// IsCastable refines the engine's cost verdict for card. On error the
	// card is not castable.
	IsCastable(state *GameState, card *Card, castable bool) (bool, error)
	// Activate reacts to event by requesting triggers on ctx.
	Activate(event CardEvent, ctx *EffectActivateContext) error
	// Trigger turns a requested id into stack entries or continuous records.
	Trigger(id EffectID, ctx *EffectTriggerContext) error
	Clone() Effect
}

// NoEffect is the effect of vanilla cards.
type NoEffect struct{}

func (NoEffect) EventFilter() EventFilter { return 0 }

func (NoEffect) IsCastable(_ *GameState, _ *Card, castable bool) (bool, error) { return castable, nil }

func (NoEffect) Activate(CardEvent, *EffectActivateContext) error { return nil }

func (NoEffect) Trigger(EffectID, *EffectTriggerContext) error { return nil }

func (NoEffect) Clone() Effect { return NoEffect{} }

// EffectActivateContext is handed to Effect.Activate. Source caused the
// event and Target holds the effect.
type EffectActivateContext struct {
	state      *GameState
	source     *Card
	target     *Card
	stack      []EffectID
	continuous []EffectID
}

func newActivateContext(state *GameState, source, target *Card) *EffectActivateContext {
	return &EffectActivateContext{state: state, source: source, target: target}
}

func (c *EffectActivateContext) State() *GameState { return c.state }

func (c *EffectActivateContext) Source() *Card { return c.source }

func (c *EffectActivateContext) Target() *Card { return c.target }

// TriggerStack requests a stack entry for id.
func (c *EffectActivateContext) TriggerStack(id EffectID) {
	c.stack = append(c.stack, id)
}

// TriggerContinuous requests a continuous record for id.
func (c *EffectActivateContext) TriggerContinuous(id EffectID) {
	c.continuous = append(c.continuous, id)
}

type triggerOrigin int

const (
	originStack triggerOrigin = iota
	originContinuous
	originHandler
)

// EffectTriggerContext collects the stack entries and continuous records an
// effect registers. The engine merges them after the call returns.
type EffectTriggerContext struct {
	state      *GameState
	source     *Card
	origin     triggerOrigin
	continuous []*ContinuousItem
	stack      []*StackItem
}

func newTriggerContext(state *GameState, source *Card, origin triggerOrigin) *EffectTriggerContext {
	return &EffectTriggerContext{state: state, source: source, origin: origin}
}

func (c *EffectTriggerContext) State() *GameState { return c.state }

// Source is the card holding the effect.
func (c *EffectTriggerContext) Source() *Card { return c.source }

// RequestedAsStack reports whether the id being triggered was requested
// with TriggerStack.
func (c *EffectTriggerContext) RequestedAsStack() bool { return c.origin == originStack }

// RequestedAsContinuous reports whether the id being triggered was
// requested with TriggerContinuous.
func (c *EffectTriggerContext) RequestedAsContinuous() bool { return c.origin == originContinuous }

// PushStack registers a stack entry sourced at the context's card.
func (c *EffectTriggerContext) PushStack(id EffectID, handler StackHandler) {
	c.stack = append(c.stack, &StackItem{Source: c.source.TimedID(), ID: id, Handler: handler})
}

// PushContinuous registers a continuous record sourced at the context's card.
func (c *EffectTriggerContext) PushContinuous(effect ContinuousEffect, cond Condition) {
	c.continuous = append(c.continuous, &ContinuousItem{
		Source:    c.source.TimedID(),
		Effect:    effect,
		Condition: cond,
		Active:    true,
	})
}

// StackHandler resolves a stack entry. action is nil on the first call and
// holds the player's answer when the previous call asked for one.
type StackHandler func(ctx *EffectTriggerContext, action *Action) (EffectReport, error)

// EffectReport is what a stack handler produces.
type EffectReport struct {
	Commands         []ActionCommand         `json:"commands,omitempty"`
	AvailableActions *PlayerAvailableActions `json:"actions,omitempty"`
}

// needsAnswer reports whether the handler asked a player for a decision.
func (r EffectReport) needsAnswer() bool {
	return r.AvailableActions != nil && len(r.AvailableActions.Actions) > 0
}
