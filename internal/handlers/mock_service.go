package handlers

import (
	"context"
	"net/http"
	"time"

	"electrometer_acquisition/internal/models"
	"electrometer_acquisition/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockInstrument struct {
	connectIdn    string
	connectErr    error
	disconnectErr error
	info          models.ConnectionInfo

	lastConnectAddress string
	connectCalled      int
	disconnectCalled   int
}

func (m *mockInstrument) Connect(ctx context.Context, address string) (string, error) {
	m.connectCalled++
	m.lastConnectAddress = address
	return m.connectIdn, m.connectErr
}
func (m *mockInstrument) Disconnect(ctx context.Context) error {
	m.disconnectCalled++
	return m.disconnectErr
}
func (m *mockInstrument) Info() models.ConnectionInfo { return m.info }

type mockAcquisition struct {
	startErr error
	stopErr  error
	chunkErr error
	state    models.RunState

	lastCfg     models.AcquisitionConfig
	lastChunk   int
	startCalled int
	stopCalled  int
	chunkCalled int
}

func (m *mockAcquisition) Start(ctx context.Context, cfg models.AcquisitionConfig) error {
	m.startCalled++
	m.lastCfg = cfg
	return m.startErr
}
func (m *mockAcquisition) Stop(ctx context.Context) error {
	m.stopCalled++
	return m.stopErr
}
func (m *mockAcquisition) SetChunkSize(n int) error {
	m.chunkCalled++
	m.lastChunk = n
	return m.chunkErr
}
func (m *mockAcquisition) State() models.RunState { return m.state }

type mockRecorder struct {
	samples  []models.Sample
	lastMsg  string
	clearErr error

	clearCalled int
}

func (m *mockRecorder) Run(ctx context.Context, tick time.Duration) {}
func (m *mockRecorder) Snapshot() []models.Sample                   { return m.samples }
func (m *mockRecorder) SamplesSince(cursor int) ([]models.Sample, int) {
	if cursor < 0 || cursor > len(m.samples) {
		cursor = len(m.samples)
	}
	if cursor == len(m.samples) {
		return nil, cursor
	}
	return m.samples[cursor:], len(m.samples)
}
func (m *mockRecorder) Count() int          { return len(m.samples) }
func (m *mockRecorder) LastMessage() string { return m.lastMsg }
func (m *mockRecorder) Clear() error {
	m.clearCalled++
	if m.clearErr != nil {
		return m.clearErr
	}
	m.samples = nil
	return nil
}

type mockMonitoring struct {
	state models.AcquisitionState
	err   error
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.AcquisitionState, error) {
	return m.state, m.err
}

type mockEventLog struct {
	resp    []models.SessionEvent
	runs    []models.RunRecord
	err     error
	runsErr error

	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SessionEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}
func (m *mockEventLog) ListRuns(ctx context.Context) ([]models.RunRecord, error) {
	return m.runs, m.runsErr
}

type mockExport struct {
	path string
	err  error

	lastFormat string
	lastPath   string
}

func (m *mockExport) Export(ctx context.Context, format, path string) (string, error) {
	m.lastFormat = format
	m.lastPath = path
	return m.path, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
