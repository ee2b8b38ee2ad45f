package handlers

import (
	"errors"
	"net/http"

	"electrometer_acquisition/internal/acquisition"
	"electrometer_acquisition/internal/instrument"
	"electrometer_acquisition/internal/models"
	"electrometer_acquisition/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK               = "ok"
	statusConnected        = "connected"
	statusAlreadyConnected = "already_connected"
	statusDisconnected     = "disconnected"
	statusStarted          = "started"
	statusAlreadyRunning   = "already_running"
	statusStopping         = "stopping"
	statusNotRunning       = "not_running"
	statusChunkSet         = "chunk_set"
	statusCleared          = "cleared"
	statusExported         = "exported"

	errConnect         = "failed to connect instrument"
	errDisconnect      = "failed to disconnect instrument"
	errGetState        = "failed to load state"
	errExport          = "failed to export buffer"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include current state if available (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.Monitoring.GetState(ctx)
	if err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// Request DTO for connecting the instrument.
type connectRequest struct {
	Address string `json:"address"` // empty → configured default
}

// Request DTO for the live chunk size.
type chunkRequest struct {
	ChunkSize int `json:"chunk_size" binding:"required"`
}

// Request DTO for exporting the session buffer.
type exportRequest struct {
	Format string `json:"format" binding:"required"` // csv | archive
	Path   string `json:"path,omitempty"`            // file, directory, or empty
}

// StartRequest is an exported model for Swagger docs of the start payload.
type StartRequest struct {
	// Total wall-clock budget of the run in seconds
	DurationS float64 `json:"duration_s" example:"150"`
	// Triggered readings per chunk query (TRIG:COUN)
	ChunkSize int `json:"chunk_size" example:"10"`
	// Integration time in power-line cycles
	NPLC float64 `json:"nplc" example:"1"`
	// Autorange on, or use fixed_range_v
	Autorange   bool    `json:"autorange" example:"true"`
	FixedRangeV float64 `json:"fixed_range_v,omitempty" example:"20"`
	// Run the zero-correct acquire sequence before the loop
	ZeroCorrect bool `json:"zero_correct" example:"false"`
	// Panel/measurement suppressions for quieter readings
	SuppressDisplay   bool `json:"suppress_display" example:"true"`
	SuppressAutozero  bool `json:"suppress_autozero" example:"true"`
	SuppressAveraging bool `json:"suppress_averaging" example:"true"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Connect instrument
// @Description  Opens the bus transport and queries *IDN?. Empty address uses the configured default.
// @Tags         instrument
// @Accept       json
// @Produce      json
// @Param        body  body   connectRequest  false  "Connect payload"
// @Success      200   {object}  map[string]interface{}  "status, identity"
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/instrument/connect [post]
// @Security     BearerAuth
func (h *Handler) connectInstrument(c *gin.Context) {
	var req connectRequest
	// Body is optional; ignore bind errors for an empty body.
	_ = c.ShouldBindJSON(&req)

	ctx := c.Request.Context()
	idn, err := h.services.Instrument.Connect(ctx, req.Address)
	if errors.Is(err, service.ErrAlreadyConnected) {
		h.respondWithStatusAndState(c, statusAlreadyConnected, gin.H{"identity": idn})
		return
	}
	if errors.Is(err, service.ErrNoAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errConnect, "instrument_connect_failed", err, "address", req.Address)
		return
	}
	h.respondWithStatusAndState(c, statusConnected, gin.H{"identity": idn})
}

// @Summary      Disconnect instrument
// @Description  Stops any running acquisition, waits for the loop to exit, then closes the transport.
// @Tags         instrument
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/instrument/disconnect [post]
// @Security     BearerAuth
func (h *Handler) disconnectInstrument(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Instrument.Disconnect(ctx); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errDisconnect, "instrument_disconnect_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusDisconnected, gin.H{})
}

// @Summary      Get instrument link info
// @Tags         instrument
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/instrument [get]
// @Security     BearerAuth
func (h *Handler) getInstrument(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Instrument.Info())
}

// @Summary      Start acquisition
// @Description  Omitted fields keep the instrument defaults (150 s, chunk 10, NPLC 1, autorange, suppressions on).
// @Tags         acquisition
// @Accept       json
// @Produce      json
// @Param        body  body   StartRequest  false  "Run configuration"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/acquisition/start [post]
// @Security     BearerAuth
func (h *Handler) startAcquisition(c *gin.Context) {
	cfg := models.DefaultConfig()
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&cfg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
			return
		}
	}

	ctx := c.Request.Context()
	err := h.services.Acquisition.Start(ctx, cfg)
	switch {
	case errors.Is(err, acquisition.ErrAlreadyRunning):
		// Informational no-op per the session command contract.
		h.respondWithStatusAndState(c, statusAlreadyRunning, gin.H{})
	case errors.Is(err, instrument.ErrNotConnected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.respondWithStatusAndState(c, statusStarted, gin.H{})
	}
}

// @Summary      Stop acquisition
// @Description  Cooperative stop; the in-flight chunk query completes first. No-op when not running.
// @Tags         acquisition
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/acquisition/stop [post]
// @Security     BearerAuth
func (h *Handler) stopAcquisition(c *gin.Context) {
	ctx := c.Request.Context()
	wasActive := h.services.Acquisition.State().Active()
	if err := h.services.Acquisition.Stop(ctx); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to stop acquisition", "acquisition_stop_failed", err)
		return
	}
	status := statusStopping
	if !wasActive {
		status = statusNotRunning
	}
	h.respondWithStatusAndState(c, status, gin.H{})
}

// @Summary      Set live chunk size
// @Description  Applied to the instrument trigger count before the next chunk query.
// @Tags         acquisition
// @Accept       json
// @Produce      json
// @Param        body  body   chunkRequest  true  "Chunk payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/acquisition/chunk [put]
// @Security     BearerAuth
func (h *Handler) setChunkSize(c *gin.Context) {
	var req chunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Acquisition.SetChunkSize(req.ChunkSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondWithStatusAndState(c, statusChunkSet, gin.H{"chunk_size": req.ChunkSize})
}

// @Summary      Get acquisition state
// @Tags         acquisition
// @Produce      json
// @Success      200  {object}  models.AcquisitionState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/acquisition/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.GetState(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "acquisition_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Clear session buffer
// @Description  Rejected while a run is active.
// @Tags         buffer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/buffer/clear [post]
// @Security     BearerAuth
func (h *Handler) clearBuffer(c *gin.Context) {
	if err := h.services.Recorder.Clear(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.respondWithStatusAndState(c, statusCleared, gin.H{})
}

// @Summary      Export session buffer
// @Description  Writes the buffer as CSV or a single-entry zip archive. Does not affect an active run.
// @Tags         buffer
// @Accept       json
// @Produce      json
// @Param        body  body   exportRequest  true  "Export payload"
// @Success      200   {object}  map[string]interface{}  "status, path"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/buffer/export [post]
// @Security     BearerAuth
func (h *Handler) exportBuffer(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	ctx := c.Request.Context()
	path, err := h.services.Export.Export(ctx, req.Format, req.Path)
	switch {
	case errors.Is(err, service.ErrNoData), errors.Is(err, service.ErrUnknownFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, errExport, "export_failed", err, "format", req.Format)
	default:
		c.JSON(http.StatusOK, gin.H{"status": statusExported, "path": path})
	}
}
