// Package store persists planning jobs and their rendered layers in sqlite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	matterslice "github.com/DiegoDionisio/MatterSlice"
	"github.com/DiegoDionisio/MatterSlice/gcode"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a job does not exist.
var ErrNotFound = errors.New("not found")

// ============================================================
// Models
// ============================================================

// Job is a print being planned layer by layer.
type Job struct {
	ID        string                     `json:"id"`
	Settings  matterslice.ConfigSettings `json:"settings"`
	CreatedAt string                     `json:"created_at"`
}

// Layer is a planned layer. Input is the layer description it was planned
// from and State the machine state it leaves behind, so that later layers can
// be planned, or planned again, on top of it.
type Layer struct {
	JobID      string          `json:"job_id"`
	LayerIndex int             `json:"layer_index"`
	Input      json.RawMessage `json:"input"`
	State      gcode.State     `json:"state"`
	GCode      string          `json:"gcode"`
	LayerTime  float64         `json:"layer_time"`
	SpeedRatio float64         `json:"speed_ratio"`
}

// ============================================================
// SQLite Repository
// ============================================================

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    settings   TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS layers (
    job_id      TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
    layer_index INTEGER NOT NULL,
    input       TEXT NOT NULL,
    state       TEXT NOT NULL,
    gcode       TEXT NOT NULL,
    layer_time  REAL NOT NULL,
    speed_ratio REAL NOT NULL,
    PRIMARY KEY (job_id, layer_index)
);
`

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init creates the tables if they do not exist yet.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// CreateJob stores a new job with settings.
func (r *Repository) CreateJob(ctx context.Context, settings matterslice.ConfigSettings) (*Job, error) {
	job := &Job{
		ID:       uuid.New().String(),
		Settings: settings,
	}
	settingsJSON, err := json.Marshal(job.Settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
        INSERT INTO jobs (id, settings)
        VALUES (?, ?)
        RETURNING created_at
    `, job.ID, string(settingsJSON))
	if err := row.Scan(&job.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

func (r *Repository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, settings, created_at
        FROM jobs
        WHERE id = ?
    `, id)

	var (
		job          Job
		settingsJSON string
	)
	if err := row.Scan(&job.ID, &settingsJSON, &job.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(settingsJSON), &job.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &job, nil
}

// StateBefore returns the machine state left by the highest stored layer
// below index, or a freshly homed state if there is none.
func (r *Repository) StateBefore(ctx context.Context, jobID string, index int) (gcode.State, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT state
        FROM layers
        WHERE job_id = ? AND layer_index < ?
        ORDER BY layer_index DESC
        LIMIT 1
    `, jobID, index)

	var stateJSON string
	if err := row.Scan(&stateJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gcode.NewState(), nil
		}
		return gcode.State{}, err
	}
	var state gcode.State
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return gcode.State{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// SaveLayers stores layers of a job in one transaction, replacing earlier
// versions of the same layers.
func (r *Repository) SaveLayers(ctx context.Context, jobID string, layers ...Layer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE id = ?`, jobID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}

	for _, l := range layers {
		stateJSON, err := json.Marshal(l.State)
		if err != nil {
			return fmt.Errorf("encode state: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO layers (job_id, layer_index, input, state, gcode, layer_time, speed_ratio)
            VALUES (?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (job_id, layer_index) DO UPDATE SET
                input = excluded.input,
                state = excluded.state,
                gcode = excluded.gcode,
                layer_time = excluded.layer_time,
                speed_ratio = excluded.speed_ratio
        `, jobID, l.LayerIndex, string(l.Input), string(stateJSON), l.GCode, l.LayerTime, l.SpeedRatio)
		if err != nil {
			return fmt.Errorf("insert layer %d: %w", l.LayerIndex, err)
		}
	}
	return tx.Commit()
}

// Layers returns the stored layers of a job ordered by layer index.
func (r *Repository) Layers(ctx context.Context, jobID string) ([]Layer, error) {
	return r.queryLayers(ctx, `WHERE job_id = ?`, jobID)
}

// LayersAfter returns the stored layers of a job above index, ordered by
// layer index.
func (r *Repository) LayersAfter(ctx context.Context, jobID string, index int) ([]Layer, error) {
	return r.queryLayers(ctx, `WHERE job_id = ? AND layer_index > ?`, jobID, index)
}

func (r *Repository) queryLayers(ctx context.Context, where string, args ...any) ([]Layer, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT job_id, layer_index, input, state, gcode, layer_time, speed_ratio
        FROM layers
        `+where+`
        ORDER BY layer_index
    `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Layer
	for rows.Next() {
		var (
			l                Layer
			input, stateJSON string
		)
		if err := rows.Scan(&l.JobID, &l.LayerIndex, &input, &stateJSON, &l.GCode, &l.LayerTime, &l.SpeedRatio); err != nil {
			return nil, err
		}
		l.Input = json.RawMessage(input)
		if err := json.Unmarshal([]byte(stateJSON), &l.State); err != nil {
			return nil, fmt.Errorf("decode state of layer %d: %w", l.LayerIndex, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GCode returns the G-code of all stored layers of a job in layer order.
func (r *Repository) GCode(ctx context.Context, jobID string) (string, error) {
	if _, err := r.GetJob(ctx, jobID); err != nil {
		return "", err
	}
	layers, err := r.Layers(ctx, jobID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, l := range layers {
		b.WriteString(l.GCode)
	}
	return b.String(), nil
}

// Open opens the sqlite database at dbPath, creating its directory.
func Open(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
