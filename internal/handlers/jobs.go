package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	matterslice "github.com/DiegoDionisio/MatterSlice"
	"github.com/DiegoDionisio/MatterSlice/gcode"
	"github.com/DiegoDionisio/MatterSlice/internal/plan"
	"github.com/DiegoDionisio/MatterSlice/internal/store"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Jobs Handler
// ============================================================

// JobsHandler plans the layers of print jobs. Layers of the same job are
// planned one at a time. Each starts from the state left by the stored layer
// below it, so layers may be posted in any order.
type JobsHandler struct {
	repo  *store.Repository
	locks sync.Map // job id -> *sync.Mutex
}

func NewJobsHandler(repo *store.Repository) *JobsHandler {
	return &JobsHandler{repo: repo}
}

func (h *JobsHandler) lock(id string) func() {
	m, _ := h.locks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateJob starts a job. The body holds optional settings overriding the
// defaults.
func (h *JobsHandler) CreateJob(c fiber.Ctx) error {
	log.Printf("[LAYERPLAN] Create job request")

	settings := matterslice.DefaultConfigSettings()
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &settings); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}
	}

	job, err := h.repo.CreateJob(context.Background(), settings)
	if err != nil {
		log.Printf("[LAYERPLAN] Create job failed: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create job"})
	}

	log.Printf("[LAYERPLAN] Created job %s", job.ID)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": job.ID})
}

// PlanLayer plans the posted layer and stores its G-code. Stored layers above
// it are planned again on top of its end state.
func (h *JobsHandler) PlanLayer(c fiber.Ctx) error {
	id := c.Params("id")
	log.Printf("[LAYERPLAN] Plan layer request for job %s", id)

	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}
	var layer plan.Layer
	if err := json.Unmarshal(c.Body(), &layer); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	unlock := h.lock(id)
	defer unlock()

	ctx := context.Background()
	job, err := h.repo.GetJob(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	if err != nil {
		log.Printf("[LAYERPLAN] Load job %s failed: %v", id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load job"})
	}

	state, err := h.repo.StateBefore(ctx, id, layer.LayerIndex)
	if err != nil {
		log.Printf("[LAYERPLAN] Load state before layer %d of job %s failed: %v", layer.LayerIndex, id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load job state"})
	}

	res, err := plan.PlanLayer(job.Settings, state, layer)
	if errors.Is(err, plan.ErrInvalidLayer) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		log.Printf("[LAYERPLAN] Plan layer %d of job %s failed: %v", layer.LayerIndex, id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to plan layer"})
	}
	if res.OutsideBoundary > 0 {
		log.Printf("[LAYERPLAN] Layer %d of job %s has %d segments outside its boundary", layer.LayerIndex, id, res.OutsideBoundary)
	}

	planned, err := storedLayer(layer, res)
	if err != nil {
		log.Printf("[LAYERPLAN] Encode layer %d of job %s failed: %v", layer.LayerIndex, id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save layer"})
	}

	// layers above this one were planned on top of a different state
	later, err := h.repo.LayersAfter(ctx, id, layer.LayerIndex)
	if err != nil {
		log.Printf("[LAYERPLAN] Load layers after %d of job %s failed: %v", layer.LayerIndex, id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load layers"})
	}
	replanned, err := replan(job.Settings, res.State, later)
	if err != nil {
		log.Printf("[LAYERPLAN] Replan layers after %d of job %s failed: %v", layer.LayerIndex, id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to replan later layers"})
	}
	if len(replanned) > 0 {
		log.Printf("[LAYERPLAN] Replanned %d layers after layer %d of job %s", len(replanned), layer.LayerIndex, id)
	}

	if err := h.repo.SaveLayers(ctx, id, append([]store.Layer{planned}, replanned...)...); err != nil {
		log.Printf("[LAYERPLAN] Save layer %d of job %s failed: %v", res.LayerIndex, id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save layer"})
	}

	return c.JSON(fiber.Map{
		"layer_index":      res.LayerIndex,
		"layer_time":       res.LayerTime,
		"speed_ratio":      res.SpeedRatio,
		"fan_percent":      res.FanPercent,
		"outside_boundary": res.OutsideBoundary,
		"gcode":            res.GCode,
	})
}

// GetGCode returns the G-code of all planned layers of a job in layer order.
func (h *JobsHandler) GetGCode(c fiber.Ctx) error {
	id := c.Params("id")

	text, err := h.repo.GCode(context.Background(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	if err != nil {
		log.Printf("[LAYERPLAN] Load gcode of job %s failed: %v", id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load gcode"})
	}

	c.Set("Content-Type", "text/plain; charset=utf-8")
	return c.SendString(text)
}

// replan plans the stored layers again, in order, starting from state.
func replan(settings matterslice.ConfigSettings, state gcode.State, layers []store.Layer) ([]store.Layer, error) {
	out := make([]store.Layer, 0, len(layers))
	for _, l := range layers {
		var layer plan.Layer
		if err := json.Unmarshal(l.Input, &layer); err != nil {
			return nil, fmt.Errorf("decode layer %d: %w", l.LayerIndex, err)
		}
		res, err := plan.PlanLayer(settings, state, layer)
		if err != nil {
			return nil, err
		}
		out = append(out, store.Layer{
			JobID:      l.JobID,
			LayerIndex: res.LayerIndex,
			Input:      l.Input,
			State:      res.State,
			GCode:      res.GCode,
			LayerTime:  res.LayerTime,
			SpeedRatio: res.SpeedRatio,
		})
		state = res.State
	}
	return out, nil
}

func storedLayer(layer plan.Layer, res plan.Result) (store.Layer, error) {
	input, err := json.Marshal(layer)
	if err != nil {
		return store.Layer{}, err
	}
	return store.Layer{
		LayerIndex: res.LayerIndex,
		Input:      input,
		State:      res.State,
		GCode:      res.GCode,
		LayerTime:  res.LayerTime,
		SpeedRatio: res.SpeedRatio,
	}, nil
}

// Register mounts the job routes on app.
func (h *JobsHandler) Register(app *fiber.App) {
	app.Post("/jobs", h.CreateJob)
	app.Post("/jobs/:id/layers", h.PlanLayer)
	app.Get("/jobs/:id/gcode", h.GetGCode)
}
