package main

import (
	"encoding/gob"
	"errors"
	"log"
	"os"
	"path/filepath"

	"gomoku-engine/engine"
)

const ttSnapshotFile = "gomoku-tt.gob"

// ttSnapshot tags the entries with the side they were searched for; scores
// are root-relative, so a snapshot loaded into an engine searching for the
// other side reads sign-inverted and must be dropped.
type ttSnapshot struct {
	Capacity int
	Side     engine.Player
	Entries  []engine.TTEntry
}

func resolveTTPath(configured string) string {
	if configured != "" {
		return configured
	}
	exe, err := os.Executable()
	if err != nil {
		return ttSnapshotFile
	}
	return filepath.Join(filepath.Dir(exe), ttSnapshotFile)
}

// saveTranspositionTable writes the occupied slots to path via a temp file
// so a crash mid-write never corrupts an existing snapshot.
func saveTranspositionTable(path string, eng *engine.SearchEngine) error {
	tt := eng.TranspositionTable()
	side, _ := eng.TableSeed()
	snap := ttSnapshot{
		Capacity: tt.Capacity(),
		Side:     side,
		Entries:  tt.SnapshotEntries(),
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(&snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	log.Printf("[ai:cache] saved %d table entries to %s", len(snap.Entries), path)
	return nil
}

// loadTranspositionTable replays a snapshot into the engine's table. A
// missing file is not an error, just a cold start.
func loadTranspositionTable(path string, eng *engine.SearchEngine) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[ai:cache] no snapshot at %s, starting cold", path)
			return nil
		}
		return err
	}
	defer f.Close()

	var snap ttSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		log.Printf("[ai:cache] snapshot %s unreadable, ignoring: %v", path, err)
		return nil
	}
	eng.SeedTable(snap.Side, snap.Entries)
	log.Printf("[ai:cache] loaded %d table entries (side=%s) from %s", len(snap.Entries), snap.Side, path)
	return nil
}
