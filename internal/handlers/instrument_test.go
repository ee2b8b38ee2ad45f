package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"electrometer_acquisition/internal/models"
	"electrometer_acquisition/internal/service"
)

func TestInstrumentHandlers_ConnectDisconnectInfo(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	mon := &mockMonitoring{state: models.AcquisitionState{Connected: true}}
	inst := &mockInstrument{
		connectIdn: "KEITHLEY INSTRUMENTS INC.,MODEL 6514,1234,A01",
		info:       models.ConnectionInfo{Connected: true, Address: "10.0.0.5:1234", Identity: "IDN"},
	}
	s := &service.Service{
		Authorization: auth,
		Monitoring:    mon,
		Instrument:    inst,
	}
	r := newTestRouter(s)

	// POST /connect with explicit address
	body := bytes.NewBufferString(`{"address":"10.0.0.5:1234"}`)
	w := doRequest(r, http.MethodPost, "/api/v1/instrument/connect", body, true)
	if w.Code != http.StatusOK {
		t.Fatalf("connect status=%d, body=%s", w.Code, w.Body.String())
	}
	if inst.lastConnectAddress != "10.0.0.5:1234" {
		t.Fatalf("address not forwarded: %q", inst.lastConnectAddress)
	}
	var resp struct {
		Status   string `json:"status"`
		Identity string `json:"identity"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusConnected || resp.Identity != inst.connectIdn {
		t.Fatalf("bad connect response: %+v", resp)
	}

	// connect again → informational 200
	inst.connectErr = service.ErrAlreadyConnected
	w = doRequest(r, http.MethodPost, "/api/v1/instrument/connect", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("already-connected status=%d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusAlreadyConnected {
		t.Fatalf("expected %q, got %q", statusAlreadyConnected, resp.Status)
	}

	// no address anywhere → 400
	inst.connectErr = service.ErrNoAddress
	w = doRequest(r, http.MethodPost, "/api/v1/instrument/connect", nil, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("no-address status=%d", w.Code)
	}

	// transport failure → 502
	inst.connectErr = errors.New("dial tcp: connection refused")
	w = doRequest(r, http.MethodPost, "/api/v1/instrument/connect", nil, true)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("dial-failure status=%d", w.Code)
	}
	inst.connectErr = nil

	// POST /disconnect
	w = doRequest(r, http.MethodPost, "/api/v1/instrument/disconnect", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("disconnect status=%d, body=%s", w.Code, w.Body.String())
	}
	if inst.disconnectCalled != 1 {
		t.Fatalf("expected Disconnect once, got %d", inst.disconnectCalled)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusDisconnected {
		t.Fatalf("expected %q, got %q", statusDisconnected, resp.Status)
	}

	// GET / → link info
	w = doRequest(r, http.MethodGet, "/api/v1/instrument/", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("info status=%d", w.Code)
	}
	var info models.ConnectionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("unmarshal info: %v", err)
	}
	if !info.Connected || info.Address != "10.0.0.5:1234" {
		t.Fatalf("unexpected info: %+v", info)
	}
}
