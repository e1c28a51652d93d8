package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutriflow/internal/meal"
	"nutriflow/internal/platform/fridge"
	"nutriflow/internal/platform/snapshot"
	"nutriflow/internal/profile"
)

const (
	upstreamTimeout = 45 * time.Second
	storeTimeout    = 5 * time.Second

	defaultListLimit = 20
)

// FridgeClient defines the interface for talking to the fridge backend.
type FridgeClient interface {
	CaptureBefore(ctx context.Context) (*fridge.CaptureBeforeResult, error)
	CaptureAfter(ctx context.Context) (*fridge.CaptureAfterResult, error)
	Status(ctx context.Context) (*fridge.Status, error)
	Frame(ctx context.Context) ([]byte, error)
	UpdateProfile(ctx context.Context, p profile.Profile) error
}

// Handler handles HTTP requests.
type Handler struct {
	Fridge      FridgeClient
	Generator   meal.Generator
	Meals       meal.Store
	Profiles    profile.Store
	SnapshotDir string
	Logger      *zap.Logger

	now func() time.Time
}

// NewHandler creates a new Handler. generator may be nil, in which case
// capture results without meal text fall back to the parser defaults.
func NewHandler(fridgeClient FridgeClient, generator meal.Generator, meals meal.Store, profiles profile.Store, snapshotDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Fridge:      fridgeClient,
		Generator:   generator,
		Meals:       meals,
		Profiles:    profiles,
		SnapshotDir: snapshotDir,
		Logger:      logger,
		now:         time.Now,
	}
}

// Register mounts the handler's routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.POST("/meals/parse", h.ParseMeals)
	r.POST("/capture/before", h.CaptureBefore)
	r.POST("/capture/after", h.CaptureAfter)
	r.GET("/status", h.Status)
	r.GET("/suggestions", h.ListSuggestions)
	r.GET("/suggestions/:id", h.GetSuggestions)
	r.PUT("/profiles/:user_id", h.PutProfile)
	r.GET("/profiles/:user_id", h.GetProfile)
}

// Health reports that the service is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type parseRequest struct {
	RawText    string   `json:"raw_text"`
	TakenItems []string `json:"taken_items"`
}

// ParseMeals parses a meal text block supplied by the caller.
func (h *Handler) ParseMeals(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	meals := meal.Parse(req.RawText, req.TakenItems)
	c.JSON(http.StatusOK, gin.H{"meal_suggestions": meals})
}

// CaptureBefore asks the fridge backend to capture the full fridge.
func (h *Handler) CaptureBefore(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), upstreamTimeout)
	defer cancel()

	result, err := h.Fridge.CaptureBefore(ctx)
	if err != nil {
		h.upstreamError(c, "capture before", err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": firstNonEmpty(result.Error, result.Message, "Failed to start capture")})
		return
	}

	h.Logger.Info("fridge captured", zap.Int("items", len(result.BeforeItems)))
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      firstNonEmpty(result.Message, "Started monitoring fridge"),
		"before_items": result.BeforeItems,
	})
}

// CaptureAfter asks the fridge backend what was taken, turns the meal text
// into suggestions and stores them as a batch.
func (h *Handler) CaptureAfter(c *gin.Context) {
	userID := c.Query("user_id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), upstreamTimeout)
	defer cancel()

	result, err := h.Fridge.CaptureAfter(ctx)
	if err != nil {
		h.upstreamError(c, "capture after", err)
		return
	}
	if !result.Success {
		warnings := result.AllergyWarnings
		if warnings == nil {
			warnings = []profile.AllergyWarning{}
		}
		c.JSON(http.StatusConflict, gin.H{
			"success":          false,
			"error":            firstNonEmpty(result.Error, result.Message, "Failed to analyze items"),
			"allergy_warnings": warnings,
		})
		return
	}

	p, err := h.profileFor(ctx, userID)
	if err != nil {
		h.Logger.Error("profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		return
	}

	rawText := result.MealSuggestion
	if strings.TrimSpace(rawText) == "" {
		rawText, err = h.generate(ctx, result.TakenItems, p)
		if err != nil {
			h.Logger.Warn("meal text generation failed, using fallback suggestion", zap.Error(err))
		}
	}

	names := result.TakenItems.Names()
	batch := &meal.Batch{
		ID:              uuid.NewString(),
		UserID:          userID,
		RawText:         rawText,
		TakenItems:      result.TakenItems,
		Suggestions:     meal.Parse(rawText, names),
		AllergyWarnings: mergeWarnings(result.AllergyWarnings, profile.CheckAllergies(names, p.Allergies)),
		CreatedAt:       h.now().UTC(),
	}
	batch.SnapshotPath = h.saveSnapshot(ctx)

	if err := h.Meals.SaveBatch(ctx, batch); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "database save timed out"})
			return
		}
		h.Logger.Error("failed to save batch", zap.String("batch_id", batch.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save suggestions: " + err.Error()})
		return
	}

	h.Logger.Info("meal suggestions generated",
		zap.String("batch_id", batch.ID),
		zap.Strings("taken_items", names),
		zap.Int("meals", len(batch.Suggestions)),
		zap.Int("allergy_warnings", len(batch.AllergyWarnings)),
	)
	c.JSON(http.StatusOK, batch)
}

// Status proxies the fridge backend status.
func (h *Handler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	status, err := h.Fridge.Status(ctx)
	if err != nil {
		h.upstreamError(c, "status", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListSuggestions returns stored batches, newest first.
func (h *Handler) ListSuggestions(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	batches, err := h.Meals.ListBatches(ctx, c.Query("user_id"), limit)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, batches)
}

// GetSuggestions returns one stored batch.
func (h *Handler) GetSuggestions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	batch, err := h.Meals.GetBatch(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	if batch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Suggestions not found"})
		return
	}
	c.JSON(http.StatusOK, batch)
}

// PutProfile stores the onboarding answers of a user and syncs them to the
// fridge backend.
func (h *Handler) PutProfile(c *gin.Context) {
	userID := c.Param("user_id")

	var form profile.OnboardingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	p, err := form.Normalize(h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.Profiles.Put(ctx, userID, p); err != nil {
		h.storeError(c, err)
		return
	}

	if err := h.Fridge.UpdateProfile(ctx, p); err != nil {
		h.Logger.Warn("failed to sync profile to fridge backend", zap.String("user_id", userID), zap.Error(err))
	}

	h.Logger.Info("stored user profile", zap.String("user_id", userID), zap.Strings("allergies", p.Allergies))
	c.JSON(http.StatusOK, p)
}

// GetProfile returns the stored profile of a user.
func (h *Handler) GetProfile(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.Profiles.Get(ctx, c.Param("user_id"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// profileFor returns the stored profile of userID or the default profile.
func (h *Handler) profileFor(ctx context.Context, userID string) (profile.Profile, error) {
	if userID == "" {
		return profile.Default(), nil
	}
	p, err := h.Profiles.Get(ctx, userID)
	if err != nil {
		return profile.Profile{}, err
	}
	if p == nil {
		return profile.Default(), nil
	}
	return *p, nil
}

func (h *Handler) generate(ctx context.Context, items meal.TakenItems, p profile.Profile) (string, error) {
	if h.Generator == nil {
		return "", meal.ErrNoGenerator
	}
	return h.Generator.GenerateMealText(ctx, items, p)
}

// saveSnapshot stores the current camera frame. Failures only get logged.
func (h *Handler) saveSnapshot(ctx context.Context) string {
	if h.SnapshotDir == "" {
		return ""
	}
	frame, err := h.Fridge.Frame(ctx)
	if err != nil {
		h.Logger.Warn("no snapshot for batch", zap.Error(err))
		return ""
	}
	path, err := snapshot.Save(h.SnapshotDir, frame)
	if err != nil {
		h.Logger.Warn("failed to save snapshot", zap.Error(err))
		return ""
	}
	return path
}

func (h *Handler) upstreamError(c *gin.Context, op string, err error) {
	h.Logger.Error("fridge backend call failed", zap.String("op", op), zap.Error(err))
	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "fridge backend timed out"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "Cannot reach fridge backend: " + err.Error()})
}

func (h *Handler) storeError(c *gin.Context, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "database query timed out"})
		return
	}
	h.Logger.Error("store call failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
}

// mergeWarnings joins backend and local warnings, dropping duplicates.
func mergeWarnings(lists ...[]profile.AllergyWarning) []profile.AllergyWarning {
	seen := make(map[string]bool)
	merged := []profile.AllergyWarning{}
	for _, list := range lists {
		for _, w := range list {
			key := strings.ToLower(w.Item) + "\x00" + strings.ToLower(w.Allergy)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, w)
		}
	}
	return merged
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
