package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/peterkuimelis/shardx/internal/log"
)

// Report is the result of one tick.
type Report struct {
	AvailableActions *PlayerAvailableActions `json:"available_actions,omitempty"`
	Logs             []log.GameEvent         `json:"logs,omitempty"`
	Endgame          EndgameState            `json:"endgame"`
	Timestamp        uint64                  `json:"timestamp"`
}

// Environment runs one game. It is not safe for concurrent use; hosts
// serialize ticks through a single owner.
type Environment struct {
	state       *GameState
	catalog     *Catalog
	continuous  *ContinuousList
	stack       Stack
	opcodes     [][]Opcode
	last        *PlayerAvailableActions
	endgame     EndgameState
	timestamp   uint64
	firstPlayer uint8
	logger      *zap.Logger
}

// NewEnvironment builds a game from the players' decks. Decks list
// archetype ids with the top card last.
func NewEnvironment(catalog *Catalog, cfg EnvironmentConfig) (*Environment, error) {
	if len(cfg.Players) < 2 {
		return nil, fmt.Errorf("need at least 2 players, got %d", len(cfg.Players))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	state := newGameState(cfg.Regulation, cfg.Debug, len(cfg.Players))
	for i, pc := range cfg.Players {
		p := state.Players[i]
		for _, id := range pc.Deck {
			a, err := catalog.Get(id)
			if err != nil {
				return nil, fmt.Errorf("deck of player %d: %w", i, err)
			}
			p.Deck = append(p.Deck, newCard(state.NextID(), p.ID, a))
		}
	}
	e := &Environment{
		state:      state,
		catalog:    catalog,
		continuous: NewContinuousList(logger),
		logger:     logger,
	}
	if !cfg.Debug.NoPlayerShuffle {
		e.firstPlayer = uint8(state.rng.IntN(len(state.Players)))
	}
	return e, nil
}

func (e *Environment) State() *GameState { return e.state }

func (e *Environment) Catalog() *Catalog { return e.catalog }

func (e *Environment) Endgame() EndgameState { return e.endgame }

// AvailableActions is the legal-action set from the last tick, or nil.
func (e *Environment) AvailableActions() *PlayerAvailableActions { return e.last }

func (e *Environment) Stack() []*StackItem { return e.stack.Items() }

func (e *Environment) Continuous() *ContinuousList { return e.continuous }

// Process runs one tick for player. An action that the last legal-action
// set does not allow is rejected and that set is returned unchanged. An
// action sent while no decision is pending is ignored. Concede always goes
// through.
func (e *Environment) Process(player uint8, action *Action) Report {
	switch {
	case action == nil:
	case action.Name == ActionConcede, action.Name == ActionDebugCommand:
	case e.last == nil:
		action = nil
	case !e.last.Validate(player, *action):
		e.logger.Warn("rejected action",
			zap.Uint8("player", player),
			zap.String("action", string(action.Name)))
		return Report{AvailableActions: e.last, Endgame: e.endgame, Timestamp: e.timestamp}
	}
	return e.processTurn(player, action)
}

func (e *Environment) report(logs []log.GameEvent) Report {
	return Report{AvailableActions: e.last, Logs: logs, Endgame: e.endgame, Timestamp: e.timestamp}
}

func (e *Environment) processTurn(player uint8, action *Action) Report {
	if e.endgame.Finished {
		e.last = nil
		return e.report(nil)
	}
	var logs []log.GameEvent

	if action != nil {
		switch action.Name {
		case ActionConcede:
			if p, err := e.state.Player(player); err == nil {
				p.lose(EndgameConcede)
			}
			e.last = nil
			return e.report(e.checkGameCondition())
		case ActionDebugCommand:
			if e.state.Debug.DebugCommand {
				var batch []Opcode
				for _, cmd := range action.Commands {
					ops, err := e.commandOpcodes(cmd)
					if err != nil {
						e.logger.Warn("debug command failed", zap.String("command", string(cmd.Name)), zap.Error(err))
						continue
					}
					for _, b := range ops {
						batch = append(batch, b...)
					}
				}
				if len(batch) > 0 {
					e.opcodes = append(e.opcodes, batch)
				}
			}
			action = nil
		}
	}

	if item := e.stack.Pop(); item != nil {
		report, err := e.resolve(item, action, &logs)
		if err == nil {
			if report.needsAnswer() {
				e.stack.Push(item)
				report.AvailableActions.sort()
			}
			e.last = report.AvailableActions
			return e.report(logs)
		}
		e.logger.Warn("stack entry dropped",
			zap.Uint32("source", item.Source.ID),
			zap.String("id", item.ID),
			zap.Error(err))
	} else if len(e.opcodes) == 0 {
		batches, err := e.processPlayerPhase(action)
		if err != nil {
			e.logger.Warn("phase processing failed",
				zap.Stringer("phase", e.state.Phase),
				zap.Error(err))
		} else {
			e.opcodes = append(e.opcodes, batches...)
		}
	}

	if len(e.opcodes) > 0 {
		batch := e.opcodes[0]
		e.opcodes = e.opcodes[1:]
		for _, op := range batch {
			logs = append(logs, e.run(op)...)
		}
	}
	e.continuous.Update(e.state)
	e.computeEffects()
	logs = append(logs, e.checkGameCondition()...)

	e.last = nil
	if len(e.opcodes) == 0 {
		e.last = e.availableActions()
	}
	return e.report(logs)
}

// resolve invokes a stack handler and applies its commands.
func (e *Environment) resolve(item *StackItem, action *Action, logs *[]log.GameEvent) (EffectReport, error) {
	source, err := e.state.FindCard(item.Source.ID)
	if err != nil {
		return EffectReport{}, err
	}
	if action != nil && action.Name == ActionSelectCard && action.Card != nil {
		if target, err := e.state.FindCard(action.Card.ID); err == nil {
			*logs = append(*logs, log.NewCardTargetedEvent(e.turn(), e.phase(), int(source.Controller()), source.Info(), target.Info()))
		}
	}
	ctx := newTriggerContext(e.state, source, originHandler)
	report, err := item.Handler(ctx, action)
	if err != nil {
		return EffectReport{}, err
	}
	e.continuous.Add(ctx.continuous...)
	e.stack.Push(ctx.stack...)
	for _, cmd := range report.Commands {
		batches, err := e.commandOpcodes(cmd)
		if err != nil {
			e.logger.Warn("command failed",
				zap.String("command", string(cmd.Name)),
				zap.Stringer("source", source),
				zap.Error(err))
			continue
		}
		for _, batch := range batches {
			for _, op := range batch {
				*logs = append(*logs, e.run(op)...)
			}
		}
	}
	e.continuous.Update(e.state)
	e.computeEffects()
	*logs = append(*logs, e.checkGameCondition()...)
	return report, nil
}

// run executes op and logs a failure instead of returning it.
func (e *Environment) run(op Opcode) []log.GameEvent {
	events, err := e.execute(op)
	if err != nil {
		e.logger.Warn("opcode failed", zap.String("opcode", fmt.Sprintf("%T", op)), zap.Error(err))
	}
	return events
}

// computeEffects rebuilds the computed attributes of every card in hand and
// on the field, and every player's abilities.
func (e *Environment) computeEffects() {
	for _, p := range e.state.Players {
		for _, c := range p.Hand {
			c.Computed = e.continuous.ApplyCard(e.state, c)
		}
		for _, c := range p.Field {
			c.Computed = e.continuous.ApplyCard(e.state, c)
		}
	}
	for _, p := range e.state.Players {
		p.Abilities = e.continuous.ApplyPlayer(e.state, p)
	}
}

// checkGameCondition settles the endgame and returns a GameEnded event the
// first time the game is decided.
func (e *Environment) checkGameCondition() []log.GameEvent {
	if e.endgame.Finished {
		return nil
	}
	for _, p := range e.state.Players {
		if p.Life == 0 {
			p.lose(EndgameLifeZero)
		}
	}
	var winners, losers []*Player
	for _, p := range e.state.Players {
		switch {
		case p.Endgame == nil:
		case p.Endgame.Win:
			winners = append(winners, p)
		default:
			losers = append(losers, p)
		}
	}
	switch {
	case len(winners) == 1:
		w := winners[0].ID
		e.endgame = EndgameState{Finished: true, Winner: &w, Reason: winners[0].Endgame.Reason}
	case len(winners) == 0 && len(losers) == 1:
		w := e.state.NextPlayer(losers[0].ID)
		e.endgame = EndgameState{Finished: true, Winner: &w, Reason: losers[0].Endgame.Reason}
	case len(winners) > 1 || len(losers) > 1:
		e.endgame = EndgameState{Finished: true, Reason: EndgameSimultaneousEnd}
	default:
		return nil
	}
	var winner *int
	if e.endgame.Winner != nil {
		w := int(*e.endgame.Winner)
		winner = &w
	}
	return []log.GameEvent{log.NewGameEndedEvent(e.turn(), e.phase(), winner, e.endgame.Reason.String())}
}

// availableActions computes the legal-action set for the current phase.
func (e *Environment) availableActions() *PlayerAvailableActions {
	s := e.state
	if !e.stack.IsEmpty() || e.endgame.Finished || s.Turn == 0 {
		return nil
	}
	for _, c := range s.FieldCards() {
		if c.Computed.IsHex() {
			return nil
		}
	}
	current := s.CurrentPlayer()
	var out *PlayerAvailableActions
	switch s.Phase {
	case PhaseMain:
		out = &PlayerAvailableActions{Player: current.ID}
		if cards := e.castableCards(current); len(cards) > 0 {
			out.Actions = append(out.Actions, AvailableAction{Name: ActionCastCard, Cards: cards})
		}
		var attackers []TimedObjectID
		for _, c := range current.Field {
			if c.Computed.IsCreature() && c.Field == FieldActive && c.Battle.Kind == BattleNone {
				attackers = append(attackers, c.TimedID())
			}
		}
		if len(attackers) > 0 {
			out.Actions = append(out.Actions, AvailableAction{Name: ActionAttack, Attackers: attackers})
		}
		out.Actions = append(out.Actions, AvailableAction{Name: ActionEndTurn})

	case PhaseBlock:
		attacking := attackingCards(current)
		if len(attacking) == 0 {
			return nil
		}
		defender := s.Players[s.NextPlayer(current.ID)]
		block := AvailableAction{Name: ActionBlock}
		for _, c := range attacking {
			block.Attackers = append(block.Attackers, c.TimedID())
		}
		for _, c := range defender.Field {
			if c.Computed.IsCreature() && c.Field == FieldActive && c.Battle.Kind == BattleNone {
				block.Blockers = append(block.Blockers, c.TimedID())
			}
		}
		out = &PlayerAvailableActions{Player: defender.ID, Actions: []AvailableAction{block}}
		if cards := e.castableCards(defender); len(cards) > 0 {
			out.Actions = append(out.Actions, AvailableAction{Name: ActionCastCard, Cards: cards})
		}

	case PhaseEnd:
		if len(current.Hand) <= s.Regulation.MaxHandSize {
			return nil
		}
		sel := AvailableAction{Name: ActionSelectCard}
		for _, c := range current.Hand {
			sel.Cards = append(sel.Cards, c.TimedID())
		}
		out = &PlayerAvailableActions{
			Player:       current.ID,
			Actions:      []AvailableAction{sel},
			Instructions: fmt.Sprintf("Discard down to %d cards", s.Regulation.MaxHandSize),
		}

	default:
		return nil
	}
	out.sort()
	return out
}

// castableCards lists the cards in p's hand that p can pay for, as
// refined by each card's effect.
func (e *Environment) castableCards(p *Player) []TimedObjectID {
	var out []TimedObjectID
	for _, c := range p.Hand {
		cost := uint32(c.Computed.Cost.Value())
		castable := e.state.Debug.IgnoreCost || cost == 0 || p.Shards.Available(c.Computed.Color) >= cost
		ok, err := c.Effect.IsCastable(e.state, c, castable)
		if err != nil {
			e.logger.Warn("castable check failed", zap.Stringer("card", c), zap.Error(err))
			continue
		}
		if ok {
			out = append(out, c.TimedID())
		}
	}
	return out
}
