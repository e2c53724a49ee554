package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"zion.world/internal/persistence/snapshot"
)

// Operator tool for poking at a world's on-disk state: snapshots and
// the sqlite index. Read-only; the live server is never touched.
func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "state":
			stateCmd(os.Args[2:])
			return
		case "wars":
			warsCmd(os.Args[2:])
			return
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "snapshots":
			snapshotsCmd(os.Args[2:])
			return
		case "live":
			liveCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// stateCmd prints the territory map and treasuries from a snapshot.
func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" && strings.TrimSpace(*snapPath) == "" {
		fmt.Fprintln(os.Stderr, "missing -world or -snapshot")
		os.Exit(2)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	path := strings.TrimSpace(*snapPath)
	if path == "" {
		path = latestSnapshot(worldDir)
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("snapshot=%s world=%s tick=%d\n", filepath.Base(path), snap.Header.WorldID, snap.Header.Tick)
	fmt.Printf("territories=%d active_wars=%d settled_wars=%d\n\n", len(snap.Territories), len(snap.Wars), len(snap.WarHistory))

	for _, t := range snap.Territories {
		owner := t.OwnerID
		if owner == "" {
			owner = "-"
		}
		fmt.Printf("%-24s owner=%-12s defense=%d tax_collected=%d\n", t.ID, owner, t.DefenseLevel, t.TaxCollected)
	}
	if len(snap.Treasuries) > 0 {
		fmt.Println()
		for guild, bal := range snap.Treasuries {
			fmt.Printf("treasury %-12s %d\n", guild, bal)
		}
	}
}

func openIndex(dataDir, worldID string) *sql.DB {
	if strings.TrimSpace(worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	path := filepath.Join(dataDir, "worlds", worldID, "index.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	return db
}

func warsCmd(args []string) {
	fs := flag.NewFlagSet("wars", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	guildID := fs.String("guild", "", "filter by guild (attacker or defender)")
	limit := fs.Int("limit", 50, "max rows")
	_ = fs.Parse(args)

	db := openIndex(*dataDir, *worldID)
	defer db.Close()

	q := `SELECT war_id, territory_id, attacker_id, defender_id, status, COALESCE(result,''), loot, declared_at_tick, ended_at_tick
		FROM wars`
	var qargs []any
	if *guildID != "" {
		q += ` WHERE attacker_id = ? OR defender_id = ?`
		qargs = append(qargs, *guildID, *guildID)
	}
	q += ` ORDER BY ended_at_tick DESC LIMIT ?`
	qargs = append(qargs, *limit)

	rows, err := db.Query(q, qargs...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			warID, declared, ended      int64
			terr, atk, def, status, res string
			loot                        int
		)
		if err := rows.Scan(&warID, &terr, &atk, &def, &status, &res, &loot, &declared, &ended); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		fmt.Printf("war=%-4d %-24s %s vs %s  %s/%s loot=%d ticks=%d..%d\n", warID, terr, atk, def, status, res, loot, declared, ended)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	actor := fs.String("actor", "", "filter by actor")
	territory := fs.String("territory", "", "filter by territory id")
	sinceTick := fs.Uint64("since_tick", 0, "only entries at or after this tick")
	limit := fs.Int("limit", 100, "max rows")
	_ = fs.Parse(args)

	db := openIndex(*dataDir, *worldID)
	defer db.Close()

	q := `SELECT tick, actor, action, COALESCE(territory_id,''), COALESCE(war_id,0) FROM audits WHERE tick >= ?`
	qargs := []any{int64(*sinceTick)}
	if *actor != "" {
		q += ` AND actor = ?`
		qargs = append(qargs, *actor)
	}
	if *territory != "" {
		q += ` AND territory_id = ?`
		qargs = append(qargs, *territory)
	}
	q += ` ORDER BY tick DESC, seq DESC LIMIT ?`
	qargs = append(qargs, *limit)

	rows, err := db.Query(q, qargs...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tick, warID       int64
			who, action, terr string
		)
		if err := rows.Scan(&tick, &who, &action, &terr, &warID); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		line := fmt.Sprintf("t=%-8d %-12s %-20s", tick, who, action)
		if terr != "" {
			line += " " + terr
		}
		if warID != 0 {
			line += fmt.Sprintf(" war=%d", warID)
		}
		fmt.Println(line)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func snapshotsCmd(args []string) {
	fs := flag.NewFlagSet("snapshots", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	_ = fs.Parse(args)

	db := openIndex(*dataDir, *worldID)
	defer db.Close()

	rows, err := db.Query(`SELECT tick, path, wars, history, treasuries FROM snapshots ORDER BY tick DESC LIMIT 50`)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tick               int64
			path               string
			wars, history, tre int
		)
		if err := rows.Scan(&tick, &path, &wars, &history, &tre); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		fmt.Printf("tick=%-10d wars=%d history=%d treasuries=%d %s\n", tick, wars, history, tre, path)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
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
