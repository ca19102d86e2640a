package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/partygm/internal/cartridge"
	"github.com/danielpatrickdp/partygm/internal/config"
	"github.com/danielpatrickdp/partygm/internal/eventlog"
	"github.com/danielpatrickdp/partygm/internal/facts"
	"github.com/danielpatrickdp/partygm/internal/gm"
	"github.com/danielpatrickdp/partygm/internal/pacing"
	"github.com/danielpatrickdp/partygm/internal/random"
)

// #region states

const (
	StateLobby  = "lobby"
	StateAct1   = "act1_gather"
	StateAct2   = "act2_play"
	StateFinale = "act3_finale"
	StateDone   = "done"
)

// #endregion states

// #region session

// Session is the live state of one game. All mutation happens through
// its methods on a single logical thread.
type Session struct {
	Setup     Setup
	State     string
	Act       int
	ActiveIdx int
	StartedAt time.Time

	Log eventlog.Log
	DB  facts.DB

	CurrentCartridge string

	cfg      config.Config
	client   *gm.Client
	registry *cartridge.Registry
	chooser  cartridge.Chooser
	src      *random.Source
	logger   *zap.Logger
	clock    func() time.Time
}

// New creates a session in the lobby state. chooser may be nil to use
// pure heuristic cartridge selection.
func New(cfg config.Config, setup Setup, client *gm.Client, registry *cartridge.Registry, chooser cartridge.Chooser, src *random.Source, logger *zap.Logger) (*Session, error) {
	if setup.TargetDurationMs <= 0 {
		return nil, fmt.Errorf("target duration must be positive, got %d", setup.TargetDurationMs)
	}
	if len(setup.Players) < 2 {
		return nil, fmt.Errorf("need at least 2 players, got %d", len(setup.Players))
	}
	if setup.SessionID == "" {
		setup.SessionID = uuid.New().String()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		Setup:    setup,
		State:    StateLobby,
		Act:      1,
		Log:      eventlog.New(setup.SessionID),
		DB:       facts.New(),
		cfg:      cfg,
		client:   client,
		registry: registry,
		chooser:  chooser,
		src:      src,
		logger:   logger,
		clock:    time.Now,
	}, nil
}

// ActivePlayer returns the player currently holding the device.
func (s *Session) ActivePlayer() Player {
	return s.Setup.Players[s.ActiveIdx]
}

// Scores returns the authoritative scores derived from the event log.
func (s *Session) Scores() map[string]int {
	return s.Log.AllScores()
}

// #endregion session

// #region inputs

// SubmitAnswer records the active player's answer. The answer feeds
// the next request's recent-events window.
func (s *Session) SubmitAnswer(answer string) {
	s.Log = s.Log.Append(eventlog.Event{
		ID:             uuid.New().String(),
		Type:           eventlog.TypeAnswerSubmitted,
		Timestamp:      s.clock(),
		ActNumber:      s.Act,
		ActivePlayerID: s.ActivePlayer().ID,
		Answer:         answer,
	})
}

// AwardPoints records points for a player. The event log stays the
// single score authority.
func (s *Session) AwardPoints(playerID string, points int) {
	s.Log = s.Log.Append(eventlog.Event{
		ID:             uuid.New().String(),
		Type:           eventlog.TypeScoreAwarded,
		Timestamp:      s.clock(),
		ActNumber:      s.Act,
		ActivePlayerID: playerID,
		Points:         points,
	})
}

// CompleteCartridge marks the cartridge in play as finished, which
// counts as a completed round for act 2 pacing.
func (s *Session) CompleteCartridge() {
	if s.CurrentCartridge == "" {
		return
	}
	s.Log = s.Log.Append(eventlog.Event{
		ID:          uuid.New().String(),
		Type:        eventlog.TypeCartridgeCompleted,
		Timestamp:   s.clock(),
		ActNumber:   s.Act,
		CartridgeID: s.CurrentCartridge,
	})
	s.CurrentCartridge = ""
}

// #endregion inputs

// #region advance

// Advance runs one turn of the session loop: recalculate pacing,
// transition acts when a boundary trips, select a cartridge when act 2
// needs one, issue the model request, and apply the validated
// response. Terminal model failures surface as *gm.Error.
func (s *Session) Advance(ctx context.Context) (TurnResult, error) {
	if s.State == StateDone {
		return TurnResult{Decision: Decision{Action: "finished", Reason: "session already over"}}, nil
	}
	if s.State == StateLobby {
		s.StartedAt = s.clock()
		s.transition(StateAct1, "session started")
	}

	guide := s.pacingGuide()
	s.applyActBoundaries(guide)

	reqType := s.requestTypeForAct()
	var preferred []facts.Category
	if s.Act == 2 {
		s.ensureCartridge(ctx, guide)
		if s.CurrentCartridge != "" {
			if def, ok := s.registry.Get(s.CurrentCartridge); ok {
				preferred = def.RequiredCategories
			}
		}
	}

	req := gm.BuildRequest(s.cfg, gm.BuildInput{
		SessionID:           s.Setup.SessionID,
		State:               s.State,
		Act:                 s.Act,
		Players:             s.playerRefs(),
		ActivePlayerID:      s.ActivePlayer().ID,
		Log:                 s.Log,
		DB:                  s.DB,
		PreferredCategories: preferred,
		CartridgeID:         s.CurrentCartridge,
		ElapsedMs:           guide.ElapsedMs,
		TargetDurationMs:    s.Setup.TargetDurationMs,
		Urgency:             guide.Urgency,
		Type:                reqType,
		SafetyMode:          s.Setup.SafetyMode,
		Src:                 s.src,
	})

	resp, err := s.client.Call(ctx, req)
	if err != nil {
		return TurnResult{Guide: guide}, err
	}

	decision := s.apply(resp)
	if reqType == gm.RequestFinale {
		s.transition(StateDone, "finale delivered")
		decision = Decision{Action: "finished", Reason: "finale delivered"}
	}

	s.rotateActivePlayer()

	return TurnResult{
		RequestType: reqType,
		Response:    resp,
		Guide:       guide,
		Cartridge:   s.CurrentCartridge,
		Decision:    decision,
	}, nil
}

func (s *Session) pacingGuide() pacing.Guide {
	return pacing.Calculate(s.cfg, pacing.Input{
		Now:              s.clock(),
		StartedAt:        s.StartedAt,
		TargetDurationMs: s.Setup.TargetDurationMs,
		CurrentAct:       s.Act,
		PlayerCount:      len(s.Setup.Players),
		Log:              s.Log,
		DB:               s.DB,
	})
}

func (s *Session) applyActBoundaries(guide pacing.Guide) {
	switch {
	case s.Act == 1 && guide.ShouldEndAct1:
		s.Act = 2
		s.transition(StateAct2, firstReason(guide.Reasons))
	case s.Act == 2 && guide.ShouldEndAct2:
		s.Act = 3
		s.CurrentCartridge = ""
		s.transition(StateFinale, firstReason(guide.Reasons))
	}
}

func (s *Session) requestTypeForAct() gm.RequestType {
	switch {
	case s.Act == 1 && s.Log.Len() <= 1:
		return gm.RequestSessionStart
	case s.Act == 1:
		return gm.RequestFactPrompt
	case s.Act == 2:
		return gm.RequestCartridgeContent
	default:
		return gm.RequestFinale
	}
}

// ensureCartridge selects the next mini-game when none is in play.
// An empty selection leaves the cartridge unset; the model gets a
// generic content request instead (no runnable mini-game).
func (s *Session) ensureCartridge(ctx context.Context, guide pacing.Guide) {
	if s.CurrentCartridge != "" {
		return
	}
	def := s.registry.SelectNext(ctx, cartridge.Context{
		PlayerCount: len(s.Setup.Players),
		CurrentAct:  s.Act,
		RemainingMs: guide.RemainingMs,
		Urgency:     guide.Urgency,
		Log:         s.Log,
		DB:          s.DB,
	}, s.chooser)
	if def == nil {
		s.logger.Warn("no runnable cartridge, skipping mini-game phase",
			zap.String("session_id", s.Setup.SessionID))
		return
	}
	s.CurrentCartridge = def.ID
	s.Log = s.Log.Append(eventlog.Event{
		ID:          uuid.New().String(),
		Type:        eventlog.TypeCartridgeStarted,
		Timestamp:   s.clock(),
		ActNumber:   s.Act,
		CartridgeID: def.ID,
	})
}

// #endregion advance

// #region apply

// apply folds a validated response into session state: derived events
// are appended and new facts stored. The client has already gated
// safety, so a fallback payload applies like any other.
func (s *Session) apply(resp gm.Response) Decision {
	now := s.clock()
	s.Log = s.Log.Append(eventlog.Event{
		ID:             uuid.New().String(),
		Type:           eventlog.TypePromptShown,
		Timestamp:      now,
		ActNumber:      s.Act,
		ActivePlayerID: s.ActivePlayer().ID,
		PromptTitle:    resp.Screen.Title,
	})

	stored := 0
	for _, f := range resp.FactsToStore {
		card, err := s.cardFromResponse(f, now)
		if err != nil {
			s.logger.Warn("dropping malformed fact from model",
				zap.String("category", f.Category),
				zap.Error(err))
			continue
		}
		s.DB = s.DB.AddFact(card)
		s.Log = s.Log.Append(eventlog.Event{
			ID:             uuid.New().String(),
			Type:           eventlog.TypeFactStored,
			Timestamp:      now,
			ActNumber:      s.Act,
			ActivePlayerID: card.TargetPlayerID,
			FactID:         card.ID,
		})
		stored++
	}

	prev := s.State
	s.State = resp.NextState

	if resp.NextState == gm.FallbackState {
		return Decision{Action: "fallback", Reason: "safety gate substituted response"}
	}
	return Decision{
		Action: "apply",
		Reason: fmt.Sprintf("state %s -> %s, %d facts stored", prev, resp.NextState, stored),
	}
}

func (s *Session) cardFromResponse(f gm.FactToStore, now time.Time) (facts.Card, error) {
	cat := facts.Category(f.Category)
	if !cat.Valid() {
		return facts.Card{}, fmt.Errorf("unknown category %q", f.Category)
	}
	if f.TargetPlayerID == "" || f.Answer == "" {
		return facts.Card{}, fmt.Errorf("fact missing target or answer")
	}
	privacy := facts.PrivacyPublic
	if f.Private {
		privacy = facts.PrivacyPrivateUntilReveal
	}
	author := f.AuthorPlayerID
	if author == "" {
		author = f.TargetPlayerID
	}
	return facts.Card{
		ID:             uuid.New().String(),
		TargetPlayerID: f.TargetPlayerID,
		AuthorPlayerID: author,
		Category:       cat,
		Question:       f.Question,
		Answer:         f.Answer,
		Privacy:        privacy,
		CreatedAt:      now,
	}, nil
}

// #endregion apply

// #region helpers

func (s *Session) transition(to, reason string) {
	from := s.State
	s.State = to
	s.Log = s.Log.Append(eventlog.Event{
		ID:             uuid.New().String(),
		Type:           eventlog.TypeStateTransition,
		Timestamp:      s.clock(),
		ActNumber:      s.Act,
		ActivePlayerID: s.ActivePlayer().ID,
		FromState:      from,
		ToState:        to,
	})
	s.logger.Info("state transition",
		zap.String("session_id", s.Setup.SessionID),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("reason", reason))
}

func (s *Session) rotateActivePlayer() {
	s.ActiveIdx = (s.ActiveIdx + 1) % len(s.Setup.Players)
}

func (s *Session) playerRefs() []gm.PlayerRef {
	refs := make([]gm.PlayerRef, len(s.Setup.Players))
	for i, p := range s.Setup.Players {
		refs[i] = gm.PlayerRef{ID: p.ID, Name: p.Name}
	}
	return refs
}

func firstReason(reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	return reasons[0]
}

// #endregion helpers

// #region bundle

// Snapshot serializes the session for persistence.
func (s *Session) Snapshot() Bundle {
	return Bundle{
		Setup:     s.Setup,
		State:     s.State,
		Act:       s.Act,
		ActiveIdx: s.ActiveIdx,
		StartedAt: s.StartedAt,
		EventLog:  s.Log,
		FactsDB:   s.DB,
		Scores:    s.Log.AllScores(),
		Version:   BundleVersion,
		LastSaved: s.clock(),
	}
}

// Restore rebuilds a live session from a saved bundle.
func Restore(cfg config.Config, b Bundle, client *gm.Client, registry *cartridge.Registry, chooser cartridge.Chooser, src *random.Source, logger *zap.Logger) (*Session, error) {
	s, err := New(cfg, b.Setup, client, registry, chooser, src, logger)
	if err != nil {
		return nil, err
	}
	s.State = b.State
	s.Act = b.Act
	s.ActiveIdx = b.ActiveIdx
	s.StartedAt = b.StartedAt
	s.Log = b.EventLog
	s.DB = b.FactsDB
	return s, nil
}

// #endregion bundle
