// Package snapshot layers versioned, named grid snapshots over a
// blobstore.Store.
//
// Each named grid owns a key space of immutable version blobs plus a
// LATEST pointer blob naming the current one:
//
//	<name>/0000000000000001.grd
//	<name>/0000000000000002.grd
//	<name>/LATEST            -> "0000000000000002.grd"
//
// Version blobs are written before the pointer moves, so readers never
// observe a pointer to a missing snapshot. With a plain S3 store the
// pointer update itself is last-writer-wins; wrap the store in
// s3.CommitStore when concurrent writers need atomic commits.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/gridgo"
	"github.com/hupe1980/gridgo/blobstore"
)

const (
	pointerName      = "LATEST"
	versionExtension = ".grd"
)

// ErrNoSnapshot is returned by LoadLatest when no snapshot has been
// saved under the given name.
var ErrNoSnapshot = errors.New("no snapshot found")

type managerOptions struct {
	logger       *gridgo.Logger
	limiter      *rate.Limiter
	concurrency  int
	snapshotOpts []gridgo.SnapshotOption
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerOptions)

// WithLogger sets the logger for save/load events. Defaults to
// gridgo.NoopLogger.
func WithLogger(l *gridgo.Logger) ManagerOption {
	return func(o *managerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithUploadRateLimit caps snapshot upload throughput in bytes per
// second across all saves from this manager. Zero means unlimited.
func WithUploadRateLimit(bytesPerSec int) ManagerOption {
	return func(o *managerOptions) {
		if bytesPerSec > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
		}
	}
}

// WithConcurrency sets the number of parallel uploads used by SaveAll.
// Defaults to 4.
func WithConcurrency(n int) ManagerOption {
	return func(o *managerOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithSnapshotOptions passes options through to WriteSnapshot and
// LoadSnapshot (compression, codec).
func WithSnapshotOptions(opts ...gridgo.SnapshotOption) ManagerOption {
	return func(o *managerOptions) {
		o.snapshotOpts = append(o.snapshotOpts, opts...)
	}
}

// Manager saves and loads versioned grid snapshots.
type Manager[T any] struct {
	store blobstore.Store
	opts  managerOptions
}

// NewManager creates a snapshot manager over the given store.
func NewManager[T any](store blobstore.Store, opts ...ManagerOption) *Manager[T] {
	o := managerOptions{
		logger:      gridgo.NoopLogger(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager[T]{store: store, opts: o}
}

// Save writes a new snapshot version of grid under name and moves the
// LATEST pointer to it. Returns the new version number.
func (m *Manager[T]) Save(ctx context.Context, name string, grid *gridgo.Grid[T]) (uint64, error) {
	latest, err := m.latestVersion(ctx, name)
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return 0, err
	}
	version := latest + 1

	var buf bytes.Buffer
	if err := grid.WriteSnapshot(&buf, m.opts.snapshotOpts...); err != nil {
		return 0, fmt.Errorf("encode snapshot %q: %w", name, err)
	}

	if err := m.waitUpload(ctx, buf.Len()); err != nil {
		return 0, err
	}

	file := versionFile(version)
	if err := m.store.Put(ctx, path.Join(name, file), buf.Bytes()); err != nil {
		return 0, fmt.Errorf("put snapshot %q version %d: %w", name, version, err)
	}
	if err := m.store.Put(ctx, path.Join(name, pointerName), []byte(file)); err != nil {
		return 0, fmt.Errorf("commit snapshot pointer %q: %w", name, err)
	}

	m.opts.logger.Info("snapshot saved",
		"name", name,
		"version", version,
		"bytes", buf.Len(),
		"elements", grid.Len(),
	)

	return version, nil
}

// SaveAll saves several grids concurrently. On error, some grids may
// already have been saved; saving is per-grid atomic regardless.
func (m *Manager[T]) SaveAll(ctx context.Context, grids map[string]*gridgo.Grid[T]) (map[string]uint64, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.concurrency)

	var mu sync.Mutex
	versions := make(map[string]uint64, len(grids))

	for name, grid := range grids {
		g.Go(func() error {
			v, err := m.Save(ctx, name, grid)
			if err != nil {
				return err
			}
			mu.Lock()
			versions[name] = v
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return versions, err
	}
	return versions, nil
}

// Load reads a specific snapshot version of name.
func (m *Manager[T]) Load(ctx context.Context, name string, version uint64) (*gridgo.Grid[T], error) {
	blob, err := m.store.Open(ctx, path.Join(name, versionFile(version)))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q version %d", ErrNoSnapshot, name, version)
		}
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	grid, err := gridgo.LoadSnapshot[T](blob, m.opts.snapshotOpts...)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q version %d: %w", name, version, err)
	}

	m.opts.logger.Info("snapshot loaded",
		"name", name,
		"version", version,
		"elements", grid.Len(),
	)

	return grid, nil
}

// LoadLatest resolves the LATEST pointer for name and loads that
// version.
func (m *Manager[T]) LoadLatest(ctx context.Context, name string) (*gridgo.Grid[T], uint64, error) {
	version, err := m.latestVersion(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	grid, err := m.Load(ctx, name, version)
	if err != nil {
		return nil, 0, err
	}
	return grid, version, nil
}

// Versions returns all stored versions of name, ascending.
func (m *Manager[T]) Versions(ctx context.Context, name string) ([]uint64, error) {
	names, err := m.store.List(ctx, name+"/")
	if err != nil {
		return nil, err
	}

	var versions []uint64
	for _, n := range names {
		base := path.Base(n)
		if !strings.HasSuffix(base, versionExtension) {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSuffix(base, versionExtension), 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

func (m *Manager[T]) latestVersion(ctx context.Context, name string) (uint64, error) {
	blob, err := m.store.Open(ctx, path.Join(name, pointerName))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return 0, fmt.Errorf("%w: %q", ErrNoSnapshot, name)
		}
		return 0, err
	}
	defer func() { _ = blob.Close() }()

	data, err := io.ReadAll(blob)
	if err != nil {
		return 0, err
	}

	file := strings.TrimSpace(string(data))
	version, err := strconv.ParseUint(strings.TrimSuffix(file, versionExtension), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snapshot pointer %q: %w", file, err)
	}
	return version, nil
}

// waitUpload blocks until the rate limiter admits n bytes. Requests
// larger than the burst are split so they never exceed WaitN's limit.
func (m *Manager[T]) waitUpload(ctx context.Context, n int) error {
	if m.opts.limiter == nil {
		return nil
	}
	burst := m.opts.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := m.opts.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

func versionFile(version uint64) string {
	return fmt.Sprintf("%016d%s", version, versionExtension)
}
