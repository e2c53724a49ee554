package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"zion.world/internal/persistence/archive"
	"zion.world/internal/persistence/indexdb"
	persistlog "zion.world/internal/persistence/log"
	"zion.world/internal/persistence/snapshot"
	"zion.world/internal/sim/catalogs"
	"zion.world/internal/sim/economy"
	"zion.world/internal/sim/tuning"
	"zion.world/internal/sim/world"
	"zion.world/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "zion_1", "world id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (audits + wars + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")

		membersPath = flag.String("members", "", "optional player->guild membership JSON file")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}

	// Load tuning (required for a fresh world; optional on snapshot resume,
	// where the snapshot carries the effective parameters).
	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if snapshotToLoad != "" && os.IsNotExist(tuneErr) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
	}

	// Optional read-model index (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	ledger := economy.NewMemoryLedger()
	members := economy.NewMemoryDirectory()
	if *membersPath != "" {
		if err := loadMembers(*membersPath, members); err != nil {
			logger.Fatalf("load members: %v", err)
		}
	}

	cfg := world.WorldConfig{
		ID:                    *worldID,
		TickRateHz:            tune.TickRateHz,
		NoticeTicks:           tune.Warfare.NoticeTicks,
		WarTax:                tune.Warfare.WarTax,
		AutoResolve:           true,
		SnapshotEveryTicks:    uint64(tune.SnapshotEveryTicks),
		CommerceEveryTicks:    tune.Schedule.CommerceEveryTicks,
		ResetEveryTicks:       tune.Schedule.ResetEveryTicks,
		CommerceGrossPerValue: tune.Economy.CommerceGrossPerValue,
	}

	var resume snapshot.SnapshotV1
	resumed := false
	if snapshotToLoad != "" {
		resume, err = snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if resume.Header.WorldID != "" && resume.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, resume.Header.WorldID)
		}
		if resume.TerritoriesDigest != "" && resume.TerritoriesDigest != cats.Territories.Digest {
			logger.Fatalf("snapshot territory catalog mismatch: %s vs %s", resume.TerritoriesDigest, cats.Territories.Digest)
		}
		cfg.TickRateHz = resume.TickRate
		cfg.NoticeTicks = resume.NoticeTicks
		cfg.WarTax = resume.WarTax
		resumed = true
	}

	w := world.New(cfg, cats, ledger, members)
	if resumed {
		w.RestoreSnapshot(resume)
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), w.CurrentTick())
	}

	ctx, cancel := signalContext()
	defer cancel()

	auditLog := persistlog.NewAuditLogger(worldDir)
	warLog := persistlog.NewWarLogger(worldDir)
	defer auditLog.Close()
	defer warLog.Close()
	w.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})
	w.SetWarLogger(multiWarLogger{a: warLog, b: idx})

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
				if cycle, archivedPath, ok, err := archive.ArchiveCycleSnapshot(worldDir, path, snap); err != nil {
					logger.Printf("archive cycle snapshot: %v", err)
				} else if ok {
					logger.Printf("archived cycle %d snapshot to %s", cycle, archivedPath)
				}
			}
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP zion_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE zion_world_tick gauge\n")
		fmt.Fprintf(rw, "zion_world_tick{world=%q} %d\n", *worldID, w.CurrentTick())
	})
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		resp := struct {
			WorldID string `json:"world_id"`
			Tick    uint64 `json:"tick"`
		}{
			WorldID: *worldID,
			Tick:    w.CurrentTick(),
		}
		_ = json.NewEncoder(rw).Encode(resp)
	})
	mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel2()
		snap, err := w.RequestSnapshot(ctx2)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}
		select {
		case snapCh <- snap:
		default:
			http.Error(rw, "snapshot writer busy", http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": snap.Header.Tick})
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

// loadMembers seeds the membership directory from a flat
// {"player_id": "guild_id"} JSON file.
func loadMembers(path string, dir *economy.MemoryDirectory) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("members file: %w", err)
	}
	dir.Restore(m)
	return nil
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

type multiAuditLogger struct {
	a world.AuditLogger
	b world.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry world.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}

type multiWarLogger struct {
	a world.WarLogger
	b world.WarLogger
}

func (m multiWarLogger) WriteWar(entry world.WarRecordEntry) error {
	if m.a != nil {
		_ = m.a.WriteWar(entry)
	}
	if m.b != nil {
		_ = m.b.WriteWar(entry)
	}
	return nil
}
