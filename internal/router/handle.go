// Package router implements the mode router: one handle type that
// encapsulates either a direct SQLite connection (private mode) or an
// IPC connection to the daemon (user-level mode), exposing the same
// methods either way so callers never branch on mode.
package router

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wok-dev/wok/internal/config"
	"github.com/wok-dev/wok/internal/daemon"
	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/merge"
	"github.com/wok-dev/wok/internal/nodeid"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/oplog"
	"github.com/wok-dev/wok/internal/rpc"
	"github.com/wok-dev/wok/internal/storage"
)

// ProtocolVersion is the client version string sent during the daemon
// handshake; it must match rpc.ProtocolVersion for the two processes to
// agree to talk to each other.
const ProtocolVersion = rpc.ProtocolVersion

// Mode names which access path a Handle is operating through.
type Mode string

const (
	ModePrivate   Mode = "private"
	ModeUserLevel Mode = "user_level"
)

// Handle is the single value every higher-level database operation is
// a method on. In private mode it calls the storage facade directly;
// in user-level mode it packages the call as a Query/Mutate and
// exchanges it with the daemon over IPC.
type Handle struct {
	mode    Mode
	workDir string
	cfg     *config.Config

	// private mode
	store *storage.Storage
	log   *oplog.Log
	clock *hlc.Clock

	// user-level mode
	client *daemon.ClientHandle
}

// Mode reports which mode the handle is operating in.
func (h *Handle) Mode() Mode { return h.mode }

// WorkDir returns the resolved project root (the directory containing
// .wok/config.toml).
func (h *Handle) WorkDir() string { return h.workDir }

// Prefix returns the project's configured issue-id prefix.
func (h *Handle) Prefix() string { return h.cfg.Prefix }

// Open resolves the operating mode for startDir (walk upward for
// .wok/config.toml, private bool field, default false) and constructs a
// Handle accordingly: direct SQLite access in private mode,
// connect-or-spawn the daemon otherwise.
func Open(startDir string) (*Handle, error) {
	root, err := config.FindProjectRoot(startDir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	if cfg.Private {
		return openPrivate(root, cfg)
	}
	return openUserLevel(root, cfg)
}

func openPrivate(root string, cfg *config.Config) (*Handle, error) {
	dbPath := filepath.Join(root, ".wok", "issues.db")
	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}
	logPath := filepath.Join(root, ".wok", "oplog.jsonl")
	log, err := oplog.Open(logPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	node := nodeid.FromPath(root)
	return &Handle{
		mode:    ModePrivate,
		workDir: root,
		cfg:     cfg,
		store:   store,
		log:     log,
		clock:   hlc.New(node),
	}, nil
}

func openUserLevel(root string, cfg *config.Config) (*Handle, error) {
	stateDir, err := config.ResolveStateDir()
	if err != nil {
		return nil, err
	}
	client, err := daemon.EnsureRunning(stateDir, ProtocolVersion)
	if err != nil {
		return nil, fmt.Errorf("router: connect to daemon: %w", err)
	}
	return &Handle{
		mode:    ModeUserLevel,
		workDir: root,
		cfg:     cfg,
		client:  daemon.WrapClient(client),
	}, nil
}

// Close releases whatever resource the handle holds: the direct
// database/log in private mode, the IPC connection otherwise.
func (h *Handle) Close() error {
	if h.mode == ModePrivate {
		if h.log != nil {
			_ = h.log.Close()
		}
		if h.store != nil {
			return h.store.Close()
		}
		return nil
	}
	return h.client.Close()
}

// Mutate stamps the payload with a fresh Hlc in private mode (the
// process owns the clock for the invocation's lifetime) and applies it
// through the log-and-merge pipeline; in user-level mode it sends the
// unstamped op to the daemon, which owns the clock and stamps it.
func (h *Handle) Mutate(ctx context.Context, payload op.Payload) (merge.Outcome, hlc.Hlc, error) {
	if h.mode == ModePrivate {
		id, err := h.clock.Now()
		if err != nil {
			return merge.Outcome{}, hlc.Hlc{}, fmt.Errorf("router: stamp op: %w", err)
		}
		o := op.Op{ID: id, Payload: payload}
		outcome, err := merge.ApplyWithLog(ctx, h.store, h.log, o)
		return outcome, id, err
	}

	result, err := h.client.Mutate(op.Op{Payload: payload})
	if err != nil {
		return merge.Outcome{}, hlc.Hlc{}, err
	}
	return result.Outcome, result.ID, nil
}

// GetIssue resolves idOrPrefix (exact or unambiguous prefix) and
// returns the issue.
func (h *Handle) GetIssue(ctx context.Context, idOrPrefix string) (*storage.Issue, error) {
	if h.mode == ModePrivate {
		id, err := h.store.ResolveID(ctx, h.store.DB(), idOrPrefix)
		if err != nil {
			return nil, err
		}
		return h.store.GetIssue(ctx, h.store.DB(), id)
	}
	return h.client.GetIssue(idOrPrefix)
}

// ListIssues returns issues matching filter.
func (h *Handle) ListIssues(ctx context.Context, filter storage.ListFilter) ([]*storage.Issue, error) {
	if h.mode == ModePrivate {
		return h.store.ListIssues(ctx, h.store.DB(), filter)
	}
	return h.client.ListIssues(filter)
}

// GetLabelsBatch returns present labels for every id in ids.
func (h *Handle) GetLabelsBatch(ctx context.Context, ids []string) (map[string][]string, error) {
	if h.mode == ModePrivate {
		return h.store.GetLabelsBatch(ctx, h.store.DB(), ids)
	}
	return h.client.GetLabels(ids)
}

// GetBlockedIssueIDs returns every issue transitively blocked by an
// unresolved blocker.
func (h *Handle) GetBlockedIssueIDs(ctx context.Context) (map[string]bool, error) {
	if h.mode == ModePrivate {
		return h.store.GetBlockedIssueIDs(ctx, h.store.DB())
	}
	ids, err := h.client.GetBlocked()
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// GetEvents returns the audit trail recorded against issueID.
func (h *Handle) GetEvents(ctx context.Context, issueID string) ([]*storage.Event, error) {
	if h.mode == ModePrivate {
		return h.store.GetEvents(ctx, h.store.DB(), issueID)
	}
	return h.client.GetEvents(issueID)
}
