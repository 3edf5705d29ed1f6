package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/yndnr/records-go/internal/core/domain"
	"github.com/yndnr/records-go/internal/telemetry/logger"
)

const (
	fileExtension = ".json"
	tempExtension = ".tmp"

	// timeLayout sorts lexically in time order.
	timeLayout = "20060102_150405.000000"
	seqDigits  = 4

	// DefaultDirName is the snapshot directory created next to the data
	// path.
	DefaultDirName = ".records"
)

var (
	ErrCorrupt = errors.New("snapshot: corrupt file")
	ErrBadName = errors.New("snapshot: not a snapshot file name")
)

// Config configures the snapshot manager.
type Config struct {
	Dir string

	// Keep is how many snapshots Prune retains. Zero keeps all.
	Keep int

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	Logger logger.Logger
}

// DefaultConfig returns the configuration for the snapshot directory that
// belongs to dataPath.
func DefaultConfig(dataPath string) Config {
	return Config{
		Dir: DirFor(dataPath, DefaultDirName),
	}
}

// DirFor returns the hidden snapshot directory colocated with dataPath.
func DirFor(dataPath, dirName string) string {
	if dirName == "" {
		dirName = DefaultDirName
	}
	return filepath.Join(filepath.Dir(dataPath), dirName)
}

// Manager persists, loads and discards snapshots.
//
// A snapshot is one JSON object: collection name to the array of its
// records, each a flat object with an integer "id". Files are named
// <timestamp>-<seq>.json and the lexically greatest name is the latest
// snapshot.
type Manager struct {
	cfg    Config
	logger logger.Logger

	// remove deletes a snapshot file; replaced in tests.
	remove func(name string) error
}

// NewManager creates a manager. The directory is created on first
// persist; a missing directory loads as empty state.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot: dir is required")
	}
	if cfg.Keep < 0 {
		return nil, fmt.Errorf("snapshot: keep must not be negative")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}

	return &Manager{
		cfg:    cfg,
		logger: l.With("component", "snapshot"),
		remove: os.Remove,
	}, nil
}

// Dir returns the snapshot directory.
func (m *Manager) Dir() string {
	return m.cfg.Dir
}

// Info contains metadata about a snapshot.
type Info struct {
	ID        string    `json:"id" yaml:"id"`
	Path      string    `json:"path" yaml:"path" table:"wide"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Seq       int       `json:"seq" yaml:"seq" table:"wide"`
	Size      int64     `json:"size" yaml:"size"`

	// Set by Persist and Load only.
	Collections int    `json:"collections,omitempty" yaml:"collections,omitempty"`
	Records     int    `json:"records,omitempty" yaml:"records,omitempty"`
	Checksum    string `json:"checksum,omitempty" yaml:"checksum,omitempty" table:"wide"`
}

// Persist writes state as a new snapshot that sorts after every existing
// one. The file appears atomically: it is written to a temporary name,
// synced and renamed.
func (m *Manager) Persist(state []domain.CollectionState) (*Info, error) {
	data, records, err := Encode(state)
	if err != nil {
		return nil, domain.ErrStorageError.WithDetails("encode snapshot").WithCause(err)
	}

	if err := os.MkdirAll(m.cfg.Dir, 0750); err != nil {
		return nil, domain.ErrStorageError.WithDetails("create snapshot dir").
			WithCause(fmt.Errorf("snapshot: create dir: %w", err))
	}

	existing, err := m.List()
	if err != nil {
		return nil, err
	}
	info := m.nextInfo(m.cfg.Clock(), existing)

	tempPath := info.Path + tempExtension
	if err := writeFileSync(tempPath, data); err != nil {
		_ = os.Remove(tempPath)
		return nil, domain.ErrStorageError.WithDetails("write snapshot").WithCause(err)
	}
	if err := os.Rename(tempPath, info.Path); err != nil {
		_ = os.Remove(tempPath)
		return nil, domain.ErrStorageError.WithDetails("write snapshot").
			WithCause(fmt.Errorf("snapshot: rename: %w", err))
	}

	sum := sha256.Sum256(data)
	info.Size = int64(len(data))
	info.Collections = len(state)
	info.Records = records
	info.Checksum = hex.EncodeToString(sum[:])
	return info, nil
}

func writeFileSync(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("snapshot: write data: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}
	return nil
}

// RestoreFunc applies a decoded snapshot. A returned error rejects the
// snapshot.
type RestoreFunc func(state []domain.CollectionState) error

// Load hands the latest usable snapshot to restore.
//
// A missing or empty directory is not an error: restore is not called and
// Load returns nil Info. A snapshot that cannot be decoded, or that
// restore rejects, is skipped with a warning in favour of the next older
// one. If every snapshot is rejected Load fails.
func (m *Manager) Load(restore RestoreFunc) (*Info, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, nil
	}

	var lastErr error
	for i := len(infos) - 1; i >= 0; i-- {
		info := infos[i]
		state, err := m.loadFile(info)
		if err == nil {
			err = restore(state)
		}
		if err == nil {
			return info, nil
		}

		var pathErr *os.PathError
		if errors.As(err, &pathErr) && !errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrStorageError.WithDetails("read snapshot " + info.ID).WithCause(err)
		}

		m.logger.Warn("skipping unusable snapshot",
			"snapshot", info.ID,
			"error", err,
		)
		lastErr = err
	}

	return nil, domain.ErrStorageError.WithDetails("no usable snapshot").WithCause(lastErr)
}

func (m *Manager) loadFile(info *Info) ([]domain.CollectionState, error) {
	data, err := os.ReadFile(info.Path)
	if err != nil {
		return nil, err
	}

	state, records, err := Decode(data)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	info.Size = int64(len(data))
	info.Collections = len(state)
	info.Records = records
	info.Checksum = hex.EncodeToString(sum[:])
	return state, nil
}

// Encode renders state as an indented JSON snapshot document. It also
// returns the number of records written.
func Encode(state []domain.CollectionState) ([]byte, int, error) {
	var buf bytes.Buffer
	records := 0

	buf.WriteByte('{')
	for i, c := range state {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(c.Name)
		if err != nil {
			return nil, 0, err
		}
		buf.Write(name)
		buf.WriteByte(':')

		recs := c.Records
		if recs == nil {
			recs = []domain.Snapshot{}
		}
		body, err := json.Marshal(recs)
		if err != nil {
			return nil, 0, fmt.Errorf("collection %q: %w", c.Name, err)
		}
		buf.Write(body)
		records += len(c.Records)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, 0, err
	}
	out.WriteByte('\n')
	return out.Bytes(), records, nil
}

// Decode parses a snapshot document, keeping collection and attribute
// order. It also returns the number of records read.
func Decode(data []byte) ([]domain.CollectionState, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, 0, fmt.Errorf("%w: top level is not an object", ErrCorrupt)
	}

	doc := orderedmap.New[string, []domain.Snapshot]()
	if err := json.Unmarshal(trimmed, doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	state := make([]domain.CollectionState, 0, doc.Len())
	records := 0
	for pair := doc.Oldest(); pair != nil; pair = pair.Next() {
		state = append(state, domain.CollectionState{Name: pair.Key, Records: pair.Value})
		records += len(pair.Value)
	}
	return state, records, nil
}

// Undo deletes the latest snapshot and returns what it was. The next Load
// resolves to the snapshot written before it. With no snapshots Undo
// returns domain.ErrNoSnapshots and changes nothing.
func (m *Manager) Undo() (*Info, error) {
	latest, err := m.Latest()
	if err != nil {
		return nil, err
	}
	if err := m.remove(latest.Path); err != nil {
		return nil, domain.ErrStorageError.WithDetails("remove snapshot " + latest.ID).WithCause(err)
	}
	return latest, nil
}

// Latest returns the greatest snapshot, or domain.ErrNoSnapshots.
func (m *Manager) Latest() (*Info, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, domain.ErrNoSnapshots
	}
	return infos[len(infos)-1], nil
}

// List lists snapshot files (metadata only), oldest first. Temporary files
// and anything not named like a snapshot are ignored.
func (m *Manager) List() ([]*Info, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.ErrStorageError.WithDetails("list snapshots").WithCause(err)
	}

	var infos []*Info
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := ParseName(e.Name())
		if err != nil {
			continue
		}
		info.Path = filepath.Join(m.cfg.Dir, e.Name())
		if fi, err := e.Info(); err == nil {
			info.Size = fi.Size()
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// Prune deletes the oldest snapshots beyond Config.Keep. The newest
// snapshot is never removed. It returns the number of files removed.
func (m *Manager) Prune() (int, error) {
	if m.cfg.Keep == 0 {
		return 0, nil
	}

	infos, err := m.List()
	if err != nil {
		return 0, err
	}
	keep := m.cfg.Keep
	if keep < 1 {
		keep = 1
	}
	if len(infos) <= keep {
		return 0, nil
	}

	removed := 0
	for _, info := range infos[:len(infos)-keep] {
		if err := os.Remove(info.Path); err != nil && !os.IsNotExist(err) {
			return removed, domain.ErrStorageError.WithDetails("prune snapshot " + info.ID).WithCause(err)
		}
		removed++
	}
	return removed, nil
}

// nextInfo names the snapshot written at now. The sequence is one past
// the highest already used for the same timestamp, and the name is moved
// after the current latest snapshot when the clock did not advance.
func (m *Manager) nextInfo(now time.Time, existing []*Info) *Info {
	now = now.UTC()
	stamp := now.Format(timeLayout)

	seq := 1
	for _, info := range existing {
		if info.CreatedAt.Format(timeLayout) == stamp && info.Seq >= seq {
			seq = info.Seq + 1
		}
	}

	info := &Info{ID: formatID(stamp, seq), CreatedAt: now, Seq: seq}
	if n := len(existing); n > 0 && info.ID <= existing[n-1].ID {
		last := existing[n-1]
		info = &Info{
			ID:        formatID(last.CreatedAt.Format(timeLayout), last.Seq+1),
			CreatedAt: last.CreatedAt,
			Seq:       last.Seq + 1,
		}
	}
	info.Path = filepath.Join(m.cfg.Dir, info.ID+fileExtension)
	return info
}

func formatID(stamp string, seq int) string {
	return fmt.Sprintf("%s-%0*d", stamp, seqDigits, seq)
}

// ParseName parses a snapshot file name into its id, timestamp and
// sequence.
func ParseName(name string) (*Info, error) {
	if !strings.HasSuffix(name, fileExtension) {
		return nil, ErrBadName
	}
	id := strings.TrimSuffix(name, fileExtension)

	dash := strings.LastIndexByte(id, '-')
	if dash < 0 {
		return nil, ErrBadName
	}
	created, err := time.Parse(timeLayout, id[:dash])
	if err != nil {
		return nil, ErrBadName
	}
	seqText := id[dash+1:]
	seq, err := strconv.Atoi(seqText)
	if err != nil || seq < 1 || len(seqText) < seqDigits {
		return nil, ErrBadName
	}

	return &Info{ID: id, CreatedAt: created, Seq: seq}, nil
}
