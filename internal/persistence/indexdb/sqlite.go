package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"zion.world/internal/persistence/snapshot"
	"zion.world/internal/sim/catalogs"
	"zion.world/internal/sim/tuning"
	"zion.world/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index over the world's audit
// trail, settled wars and snapshot locations. Writes are funneled
// through a single goroutine so the world loop never blocks on disk.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqAudit reqKind = iota + 1
	reqWar
	reqSnapshot
)

type req struct {
	kind reqKind

	audit    world.AuditEntry
	war      world.WarRecordEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick        uint64
	Path        string
	Territories int
	Wars        int
	History     int
	Treasuries  int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// High buffer: a burst of audits (e.g. a reset cycle touching every
		// territory) must not stall the sim.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			territory_id TEXT,
			war_id INTEGER,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_territory_tick ON audits(territory_id, tick);`,
		`CREATE TABLE IF NOT EXISTS wars (
			war_id INTEGER PRIMARY KEY,
			territory_id TEXT NOT NULL,
			attacker_id TEXT NOT NULL,
			defender_id TEXT NOT NULL,
			status TEXT NOT NULL,
			result TEXT,
			attacker_force REAL NOT NULL,
			defender_force REAL NOT NULL,
			loot INTEGER NOT NULL,
			declared_at_tick INTEGER NOT NULL,
			ended_at_tick INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_wars_attacker ON wars(attacker_id, ended_at_tick);`,
		`CREATE INDEX IF NOT EXISTS idx_wars_defender ON wars(defender_id, ended_at_tick);`,
		`CREATE INDEX IF NOT EXISTS idx_wars_territory ON wars(territory_id, ended_at_tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			territories INTEGER NOT NULL,
			wars INTEGER NOT NULL,
			history INTEGER NOT NULL,
			treasuries INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
	return nil
}

func (s *SQLiteIndex) WriteWar(entry world.WarRecordEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqWar, war: entry}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:        snap.Header.Tick,
		Path:        path,
		Territories: len(snap.Territories),
		Wars:        len(snap.Wars),
		History:     len(snap.WarHistory),
		Treasuries:  len(snap.Treasuries),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

// UpsertCatalogs records the territory catalog and the applied tuning so
// an operator can check which rules a database was produced under.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "territories.json")); err == nil && len(b) > 0 {
			rows = append(rows, kv{name: "territories", digest: cats.Territories.Digest, json: b})
		}
	}
	{
		// Tuning: store the values we actually apply (canonical JSON).
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(tick,seq,actor,action,territory_id,war_id,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertWar, _ := s.db.Prepare(`INSERT OR REPLACE INTO wars(war_id,territory_id,attacker_id,defender_id,status,result,attacker_force,defender_force,loot,declared_at_tick,ended_at_tick) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,territories,wars,history,treasuries) VALUES(?,?,?,?,?,?)`)
	defer func() {
		if insertAudit != nil {
			_ = insertAudit.Close()
		}
		if insertWar != nil {
			_ = insertWar.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastAuditTick uint64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqAudit:
			a := r.audit
			if a.Tick != lastAuditTick {
				lastAuditTick = a.Tick
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			if insertAudit != nil {
				if _, err := tx.Stmt(insertAudit).Exec(
					int64(a.Tick),
					seq,
					a.Actor,
					a.Action,
					a.TerritoryID,
					int64(a.WarID),
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqWar:
			e := r.war
			if insertWar != nil {
				if _, err := tx.Stmt(insertWar).Exec(
					int64(e.WarID),
					e.TerritoryID,
					e.AttackerID,
					e.DefenderID,
					e.Status,
					e.Result,
					e.AttackerForce,
					e.DefenderForce,
					e.Loot,
					int64(e.DeclaredAtTick),
					int64(e.EndedAtTick),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					int64(sn.Tick),
					sn.Path,
					sn.Territories,
					sn.Wars,
					sn.History,
					sn.Treasuries,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
