package world

import (
	"context"
	"sync/atomic"
	"time"

	"zion.world/internal/persistence/snapshot"
	"zion.world/internal/protocol"
	"zion.world/internal/sim/catalogs"
	"zion.world/internal/sim/world/feature/warfare"
)

type WorldConfig struct {
	ID         string
	TickRateHz int

	// Zero values fall back to the warfare defaults (700 / 200).
	NoticeTicks uint64
	WarTax      int

	// When set, the world loop resolves armed wars at their battle tick.
	// Tests drive ResolveBattle directly and leave this off.
	AutoResolve bool

	// Scheduled pulses, in ticks. Zero disables the pulse.
	SnapshotEveryTicks uint64
	CommerceEveryTicks uint64
	ResetEveryTicks    uint64

	// Gross commerce routed through each owned territory per pulse, per
	// point of territory value.
	CommerceGrossPerValue int
}

// Ledger is the treasury collaborator contract. Debit is only called
// after the balance has been verified sufficient.
type Ledger interface {
	Balance(guildID string) int
	Debit(guildID string, amount int)
	Credit(guildID string, amount int)
}

// Membership resolves a player to their guild ("" when unaffiliated).
// Owned externally; read-only from this core.
type Membership interface {
	GuildOf(playerID string) string
}

type JoinRequest struct {
	PlayerID string
	Name     string
	Out      chan []byte
	Resp     chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type ActionEnvelope struct {
	PlayerID string
	Act      protocol.ActMsg
}

// World is a single-threaded authoritative simulation of the territory
// map and its wars. All state must be accessed only from the world loop
// goroutine; tests call operations directly from one goroutine instead.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs

	tick atomic.Uint64

	territories map[string]*TerritoryState
	wars        map[uint64]*War // non-terminal only
	warHistory  []*War          // append-only, terminal wars
	nextWarNum  atomic.Uint64

	ledger  Ledger
	members Membership

	clients map[string]*clientState

	inbox chan ActionEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	// Tiebreak strategy for battle resolution. Swappable for experiments;
	// always deterministic for a given seed.
	tiebreak warfare.Tiebreak

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	auditLogger AuditLogger
	warLogger   WarLogger

	// Optional snapshot sink (may be nil). Snapshot writing is off-thread;
	// the loop only exports state.
	snapshotSink chan<- snapshot.SnapshotV1

	snapReq chan chan snapshot.SnapshotV1
}

type clientState struct {
	Out chan []byte
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// WarLogger receives every war that reaches a terminal status.
type WarLogger interface {
	WriteWar(entry WarRecordEntry) error
}

type AuditEntry struct {
	Tick        uint64         `json:"tick"`
	Actor       string         `json:"actor"`
	Action      string         `json:"action"` // e.g. "CLAIM_TERRITORY"
	TerritoryID string         `json:"territory_id,omitempty"`
	WarID       uint64         `json:"war_id,omitempty"`
	Detail      map[string]any `json:"detail,omitempty"`
}

type WarRecordEntry struct {
	WarID          uint64  `json:"war_id"`
	TerritoryID    string  `json:"territory_id"`
	AttackerID     string  `json:"attacker_id"`
	DefenderID     string  `json:"defender_id"`
	Status         string  `json:"status"`
	Result         string  `json:"result,omitempty"`
	AttackerForce  float64 `json:"attacker_force"`
	DefenderForce  float64 `json:"defender_force"`
	Loot           int     `json:"loot,omitempty"`
	DeclaredAtTick uint64  `json:"declared_at_tick"`
	EndedAtTick    uint64  `json:"ended_at_tick"`
}

// New builds a world with every territory state present from the start.
// There is no lazy initialization anywhere: a territory id either exists
// in the catalog (and therefore in the state map) or the operation fails.
func New(cfg WorldConfig, cats *catalogs.Catalogs, ledger Ledger, members Membership) *World {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 5
	}
	if cfg.NoticeTicks == 0 {
		cfg.NoticeTicks = warfare.NoticeTicks
	}
	if cfg.WarTax == 0 {
		cfg.WarTax = warfare.WarTax
	}
	if cfg.CommerceGrossPerValue == 0 {
		cfg.CommerceGrossPerValue = 50
	}

	w := &World{
		cfg:         cfg,
		catalogs:    cats,
		territories: make(map[string]*TerritoryState, len(cats.Territories.IDs)),
		wars:        map[uint64]*War{},
		ledger:      ledger,
		members:     members,
		clients:     map[string]*clientState{},
		inbox:       make(chan ActionEnvelope, 1024),
		join:        make(chan JoinRequest, 16),
		leave:       make(chan string, 16),
		stop:        make(chan struct{}),
		snapReq:     make(chan chan snapshot.SnapshotV1, 4),
		tiebreak:    warfare.LCGTiebreak,
	}
	for _, id := range cats.Territories.IDs {
		w.territories[id] = &TerritoryState{ID: id}
	}
	return w
}

func (w *World) SetAuditLogger(l AuditLogger) { w.auditLogger = l }
func (w *World) SetWarLogger(l WarLogger)     { w.warLogger = l }

func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

// SetTiebreak swaps the battle tiebreak strategy. Must be called before
// the world loop starts.
func (w *World) SetTiebreak(tb warfare.Tiebreak) {
	if tb != nil {
		w.tiebreak = tb
	}
}

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// RequestSnapshot asks the world loop for an export of its current state.
// Only valid while Run is active.
func (w *World) RequestSnapshot(ctx context.Context) (snapshot.SnapshotV1, error) {
	resp := make(chan snapshot.SnapshotV1, 1)
	select {
	case w.snapReq <- resp:
	case <-ctx.Done():
		return snapshot.SnapshotV1{}, ctx.Err()
	}
	select {
	case snap := <-resp:
		return snap, nil
	case <-ctx.Done():
		return snapshot.SnapshotV1{}, ctx.Err()
	}
}

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }

func (w *World) Stop() { close(w.stop) }

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.handleJoin(req)
		case id := <-w.leave:
			delete(w.clients, id)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case resp := <-w.snapReq:
			resp <- w.ExportSnapshot(w.tick.Load())
		case <-ticker.C:
			w.step(pendingActions)
			pendingActions = pendingActions[:0]
		}
	}
}

func (w *World) step(actions []ActionEnvelope) {
	now := w.tick.Add(1)

	for _, env := range actions {
		events := w.applyAct(env.PlayerID, env.Act, now)
		w.sendEvents(env.PlayerID, now, events)
	}

	armed := w.tickWars(now)
	for _, war := range armed {
		w.broadcast(now, warEvent(now, "ARMED", war))
		if w.cfg.AutoResolve {
			res := w.ResolveBattle(war.ID, 0)
			if res.OK {
				w.broadcastResolved(now, war, res)
			}
		}
	}

	if w.cfg.CommerceEveryTicks > 0 && now%w.cfg.CommerceEveryTicks == 0 {
		w.commercePulse(now)
	}
	if w.cfg.ResetEveryTicks > 0 && now%w.cfg.ResetEveryTicks == 0 {
		// Capture the world as it stood at cycle end before clearing it;
		// the archive keeps these snapshots around.
		if w.snapshotSink != nil {
			select {
			case w.snapshotSink <- w.ExportSnapshot(now):
			default:
			}
		}
		res := w.ResetCycle(now)
		w.broadcast(now, protocol.Event{
			"t":                   now,
			"type":                "CYCLE_RESET",
			"territories_cleared": res.TerritoriesCleared,
			"refunds_paid":        res.RefundsPaid,
			"wars_cancelled":      res.WarsCancelled,
		})
	}
	if w.snapshotSink != nil && w.cfg.SnapshotEveryTicks > 0 && now%w.cfg.SnapshotEveryTicks == 0 {
		select {
		case w.snapshotSink <- w.ExportSnapshot(now):
		default:
			// Drop snapshot if sink is backed up.
		}
	}
}

// commercePulse routes the scheduled commerce gross through every owned
// territory. Unowned territories trade tax-free.
func (w *World) commercePulse(now uint64) {
	for _, id := range w.catalogs.Territories.IDs {
		def := w.catalogs.Territories.ByID[id]
		gross := def.Value * w.cfg.CommerceGrossPerValue
		w.CollectTax(id, gross, now)
	}
}

func (w *World) handleJoin(req JoinRequest) {
	if req.PlayerID == "" {
		if req.Resp != nil {
			req.Resp <- JoinResponse{}
		}
		return
	}
	if req.Out != nil {
		w.clients[req.PlayerID] = &clientState{Out: req.Out}
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        req.PlayerID,
		GuildID:         w.members.GuildOf(req.PlayerID),
		WorldParams: protocol.WorldParams{
			WorldID:         w.cfg.ID,
			TickRateHz:      w.cfg.TickRateHz,
			WarNoticeTicks:  w.cfg.NoticeTicks,
			WarTax:          w.cfg.WarTax,
			OwnershipCap:    w.catalogs.Territories.OwnershipCap,
			MaxDefenseLevel: maxDefenseLevel(),
		},
		Catalogs: protocol.CatalogDigests{
			TerritoriesDigest: w.catalogs.Territories.Digest,
			TerritoryCount:    len(w.catalogs.Territories.IDs),
		},
	}
	if req.Resp != nil {
		req.Resp <- JoinResponse{Welcome: welcome}
	}
}

func (w *World) sendEvents(playerID string, tick uint64, events []protocol.Event) {
	if len(events) == 0 {
		return
	}
	c := w.clients[playerID]
	if c == nil {
		return
	}
	b := encodeEventMsg(tick, events)
	select {
	case c.Out <- b:
	default:
		// Slow client: drop rather than stall the world loop.
	}
}

func (w *World) broadcast(tick uint64, ev protocol.Event) {
	if len(w.clients) == 0 {
		return
	}
	b := encodeEventMsg(tick, []protocol.Event{ev})
	for _, c := range w.clients {
		select {
		case c.Out <- b:
		default:
		}
	}
}

func (w *World) auditEvent(tick uint64, actor, action, territoryID string, warID uint64, detail map[string]any) {
	if w.auditLogger == nil {
		return
	}
	_ = w.auditLogger.WriteAudit(AuditEntry{
		Tick:        tick,
		Actor:       actor,
		Action:      action,
		TerritoryID: territoryID,
		WarID:       warID,
		Detail:      detail,
	})
}

func (w *World) recordWar(war *War) {
	if w.warLogger == nil {
		return
	}
	_ = w.warLogger.WriteWar(WarRecordEntry{
		WarID:          war.ID,
		TerritoryID:    war.TerritoryID,
		AttackerID:     war.AttackerID,
		DefenderID:     war.DefenderID,
		Status:         string(war.Status),
		Result:         string(war.Result),
		AttackerForce:  war.AttackerForce,
		DefenderForce:  war.DefenderForce,
		Loot:           war.Loot,
		DeclaredAtTick: war.DeclaredAtTick,
		EndedAtTick:    war.EndedAtTick,
	})
}
