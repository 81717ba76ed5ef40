// Command dbinspect dumps the playback daemon's local store for debugging:
// the pending queue, saved preferences, and cached backend documents.
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/narrifyapp/narrify-playback/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dbPath = filepath.Join(home, ".narrify", "playback", "db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Playback Store Inspection ===")
	fmt.Println()

	if err := db.View(func(txn *badger.Txn) error {
		printQueue(txn)
		printRate(txn)
		printCachedLibrary(txn)
		return nil
	}); err != nil {
		log.Fatalf("Inspection failed: %v", err)
	}
}

func printQueue(txn *badger.Txn) {
	fmt.Println("Pending queue:")

	item, err := txn.Get([]byte("queue:pending"))
	if err != nil {
		fmt.Println("  (empty)")
		fmt.Println()
		return
	}

	var entries []domain.QueueEntry
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entries)
	}); err != nil {
		fmt.Printf("  unreadable: %v\n\n", err)
		return
	}

	for i, e := range entries {
		fmt.Printf("  [%d] %s (%s, added %s)\n",
			i, e.Unit.Title, e.Unit.ID, e.AddedAt.Format(time.RFC3339))
	}
	fmt.Println()
}

func printRate(txn *badger.Txn) {
	fmt.Println("Preferences:")

	item, err := txn.Get([]byte("prefs:rate"))
	if err != nil {
		fmt.Println("  rate: (default)")
		fmt.Println()
		return
	}

	var rate float64
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rate)
	}); err != nil {
		fmt.Printf("  rate: unreadable: %v\n\n", err)
		return
	}
	fmt.Printf("  rate: %.2fx\n\n", rate)
}

func printCachedLibrary(txn *badger.Txn) {
	fmt.Println("Cached library:")

	printCachedList[domain.PlaybackUnit](txn, "library:units", "saved units", func(u domain.PlaybackUnit) string {
		return fmt.Sprintf("%s (%s)", u.Title, u.ID)
	})
	printCachedList[domain.Playlist](txn, "library:playlists", "playlists", func(p domain.Playlist) string {
		return fmt.Sprintf("%s (%d entries)", p.Name, len(p.AudioIDs))
	})
	fmt.Println()
}

func printCachedList[T any](txn *badger.Txn, key, label string, describe func(T) string) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		fmt.Printf("  %s: (not cached)\n", label)
		return
	}

	// Cache entries wrap the value with their fetch time.
	var entry struct {
		Value     []T       `json:"value"`
		FetchedAt time.Time `json:"fetched_at"`
	}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entry)
	}); err != nil {
		fmt.Printf("  %s: unreadable: %v\n", label, err)
		return
	}

	fmt.Printf("  %s: %d (fetched %s)\n", label, len(entry.Value), entry.FetchedAt.Format(time.RFC3339))
	for _, v := range entry.Value {
		fmt.Printf("    - %s\n", describe(v))
	}
}
