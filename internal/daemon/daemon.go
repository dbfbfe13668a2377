// Package daemon decides when the sync engine runs.
//
// Three trigger sources converge on the same syncNow entry point: one
// immediate sync when an identity signs in (daemon start), one when
// connectivity returns after an outage, and a recurring background timer
// governed by the persisted preferences. An optional fourth source watches
// the store's database file so external local mutations schedule a
// near-term sync.
//
// Stopping the daemon tears every timer and watcher down; no trigger for
// a signed-out identity survives. Overlapping triggers are harmless: the
// engine drops a sync request while another is in flight for the same
// identity.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	syncengine "github.com/invoicepro/invoicepro/internal/sync"
)

// Syncer runs one sync cycle. *sync.Engine satisfies it.
type Syncer interface {
	SyncNow(ctx context.Context, identity string) (*syncengine.Result, error)
}

// Pinger probes remote reachability. remote.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds daemon configuration.
type Config struct {
	// ProbeInterval is how often connectivity is checked.
	ProbeInterval time.Duration

	// DebounceInterval is how long to wait after a database file event
	// before scheduling a sync, batching rapid local writes together.
	DebounceInterval time.Duration

	// WatchStore enables the database file watcher trigger.
	WatchStore bool

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ProbeInterval:    30 * time.Second,
		DebounceInterval: 2 * time.Second,
		WatchStore:       true,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon owns the trigger state for one signed-in identity.
type Daemon struct {
	identity string
	syncer   Syncer
	probe    Pinger
	meta     MetaStore
	dbPath   string
	config   *Config

	restartCh chan struct{}
	changedAt time.Time
	changedMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon for the identity. dbPath is the store's database
// file, watched for external local writes when Config.WatchStore is set.
func New(identity string, syncer Syncer, probe Pinger, meta MetaStore, dbPath string, config *Config) (*Daemon, error) {
	if identity == "" {
		return nil, fmt.Errorf("identity cannot be empty")
	}
	if syncer == nil {
		return nil, fmt.Errorf("syncer cannot be nil")
	}
	if meta == nil {
		return nil, fmt.Errorf("meta store cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		identity:  identity,
		syncer:    syncer,
		probe:     probe,
		meta:      meta,
		dbPath:    dbPath,
		config:    config,
		restartCh: make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start runs one immediate sync (the sign-in trigger) and then launches
// the background trigger loops. It blocks until ctx is cancelled or Stop
// is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Printf("Starting sync daemon for %s", d.identity)

	d.runSync("sign-in")

	d.wg.Add(2)
	go d.intervalLoop()
	go d.probeLoop()

	if d.config.WatchStore && d.dbPath != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create store watcher: %w", err)
		}
		if err := watcher.Add(filepath.Dir(d.dbPath)); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch store directory: %w", err)
		}
		d.wg.Add(2)
		go d.watchLoop(watcher)
		go d.debounceLoop()
	}

	select {
	case <-ctx.Done():
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop tears down every trigger for the identity.
func (d *Daemon) Stop() error {
	d.config.Logger.Printf("Stopping sync daemon for %s", d.identity)
	d.cancel()
	d.wg.Wait()
	d.config.Logger.Println("Sync daemon stopped")
	return nil
}

// SetPrefs persists new preferences and restarts the background timer so
// the change applies without a daemon restart.
func (d *Daemon) SetPrefs(ctx context.Context, prefs Prefs) error {
	if err := SavePrefs(ctx, d.meta, prefs); err != nil {
		return err
	}
	select {
	case d.restartCh <- struct{}{}:
	default:
	}
	return nil
}

// intervalLoop is the background timer trigger. The ticker is rebuilt
// whenever SetPrefs signals a change.
func (d *Daemon) intervalLoop() {
	defer d.wg.Done()

	prefs := d.loadPrefs()
	ticker := time.NewTicker(prefs.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-d.restartCh:
			prefs = d.loadPrefs()
			ticker.Reset(prefs.SyncInterval)
			d.config.Logger.Printf("Sync preferences changed: auto=%v interval=%s",
				prefs.AutoSyncEnabled, prefs.SyncInterval)

		case <-ticker.C:
			// Reload on every tick so preference edits from another
			// process take effect without a restart signal.
			fresh := d.loadPrefs()
			if fresh.SyncInterval != prefs.SyncInterval {
				ticker.Reset(fresh.SyncInterval)
			}
			prefs = fresh
			if !prefs.AutoSyncEnabled {
				continue
			}
			d.runSync("interval")
		}
	}
}

// probeLoop is the connectivity trigger: one sync on each offline→online
// transition.
func (d *Daemon) probeLoop() {
	defer d.wg.Done()

	if d.probe == nil {
		return
	}

	online := d.pingOnce()
	ticker := time.NewTicker(d.config.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			now := d.pingOnce()
			if now && !online {
				d.config.Logger.Println("Connectivity regained")
				d.runSync("online")
			}
			online = now
		}
	}
}

func (d *Daemon) pingOnce() bool {
	ctx, cancel := context.WithTimeout(d.ctx, 10*time.Second)
	defer cancel()
	return d.probe.Ping(ctx) == nil
}

// watchLoop queues database file events for the debouncer.
func (d *Daemon) watchLoop(watcher *fsnotify.Watcher) {
	defer d.wg.Done()
	defer watcher.Close()

	base := filepath.Base(d.dbPath)
	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			// SQLite writes land in the database file or its -wal sibling.
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			d.changedMu.Lock()
			d.changedAt = time.Now()
			d.changedMu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// debounceLoop turns a quiet period after local writes into one sync.
func (d *Daemon) debounceLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	var lastSynced time.Time
	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.changedMu.Lock()
			changedAt := d.changedAt
			d.changedMu.Unlock()

			if changedAt.IsZero() || !changedAt.After(lastSynced) {
				continue
			}
			if time.Since(changedAt) < d.config.DebounceInterval {
				continue
			}
			d.runSync("local change")
			// The sync itself writes the database; give the watcher a
			// moment to deliver the events those writes raised before
			// stamping, so they do not count as a new local change.
			time.Sleep(50 * time.Millisecond)
			lastSynced = time.Now()
		}
	}
}

func (d *Daemon) loadPrefs() Prefs {
	ctx, cancel := context.WithTimeout(d.ctx, 5*time.Second)
	defer cancel()

	prefs, err := LoadPrefs(ctx, d.meta)
	if err != nil {
		d.config.Logger.Printf("WARNING: failed to load sync preferences: %v", err)
	}
	return prefs
}

func (d *Daemon) runSync(trigger string) {
	res, err := d.syncer.SyncNow(d.ctx, d.identity)
	if err != nil {
		d.config.Logger.Printf("Sync (%s) failed: %v", trigger, err)
		return
	}
	if res.Dropped {
		return
	}
	if res.Failed() {
		d.config.Logger.Printf("Sync (%s) completed with %d table failures", trigger, len(res.Errors))
	}
}
