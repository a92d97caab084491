package frontend

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/authz"
	"github.com/wago-dev/wdx/internal/ipc/driver"
	"github.com/wago-dev/wdx/internal/ipc/objectstore"
	"github.com/wago-dev/wdx/internal/ipc/transport"
	"github.com/wago-dev/wdx/internal/ipc/wire"
	"github.com/wago-dev/wdx/internal/model"
	"github.com/wago-dev/wdx/internal/registry"
	"github.com/wago-dev/wdx/internal/status"
	"github.com/wago-dev/wdx/internal/value"
)

type fakeProvider struct {
	voltage *value.Value
}

func (p *fakeProvider) GetParameterValues(ids []addressing.ParameterInstanceID) []registry.ParameterReadResult {
	out := make([]registry.ParameterReadResult, len(ids))
	for i, id := range ids {
		out[i] = registry.ParameterReadResult{ID: id, Value: p.voltage, Code: status.NoErrorYet}
	}
	return out
}

func (p *fakeProvider) SetParameterValues(requests []registry.ParameterWriteRequest) []registry.ParameterWriteResult {
	out := make([]registry.ParameterWriteResult, len(requests))
	for i, r := range requests {
		p.voltage = r.Value
		out[i] = registry.ParameterWriteResult{ID: r.ID, Code: status.NoErrorYet}
	}
	return out
}

func (p *fakeProvider) InvokeMethod(id addressing.ParameterInstanceID, args map[string]*value.Value) (map[string]*value.Value, status.Code) {
	return map[string]*value.Value{"echo": args["in"]}, status.NoErrorYet
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	m := model.New()
	feat := model.NewFeatureDefinition("power", "powerClass")
	cls := model.NewClassDefinition("powerClass", "power")
	cls.Parameters = []*model.ParameterDefinition{
		{ID: 10, Path: "power/voltage", Type: value.Uint16, Rank: value.Scalar, Writeable: true},
		{ID: 11, Path: "power/echo", Type: value.Method, Rank: value.Scalar},
		{ID: 12, Path: "power/firmware_file", Type: value.FileID, Rank: value.Scalar, Writeable: true},
	}
	feat.Classes = []string{"powerClass"}
	m.AddFeature(feat)
	m.AddClass(cls)
	if err := m.ResolveAll(); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	m.AddMethodArgs(11, &model.MethodDefinition{
		InArgs:  []model.MethodArgumentDefinition{{Name: "in", Type: value.Uint16, Rank: value.Scalar}},
		OutArgs: []model.MethodArgumentDefinition{{Name: "echo", Type: value.Uint16, Rank: value.Scalar}},
	})
	reg := registry.New(m)
	reg.RegisterDevice(addressing.Headstation)
	if err := reg.RegisterProvider(registry.ProviderEntry{
		DisplayName:      "power-driver",
		CallMode:         registry.Concurrent,
		ClaimedSelectors: []addressing.ParameterSelector{addressing.AllOfFeature("power", addressing.AnyDevice)},
	}, &fakeProvider{voltage: value.NewUint16(7)}); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}
	return reg
}

func dialPair(t *testing.T) (client, server *transport.Conn) {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "frontend-test.sock")
	ln, err := transport.Listen(transport.ListenerConfig{Path: sockPath, UID: -1, GID: -1})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	acceptedCh := make(chan *transport.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			acceptedCh <- c
		}
	}()
	client, err = transport.Dial(sockPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	server = <-acceptedCh
	t.Cleanup(func() { client.Close(); server.Close() })
	return client, server
}

func newProxy(t *testing.T, reg *registry.Registry) *Proxy {
	t.Helper()
	return newProxyWithStub(t, NewStub(reg, transport.Credentials{}))
}

func newProxyWithStub(t *testing.T, stub *Stub) *Proxy {
	t.Helper()
	client, server := dialPair(t)

	serverStore := objectstore.New()
	serverStore.Register(objectstore.Frontend, stub)
	serverDriver := driver.New(server, serverStore)
	go serverDriver.Run(50 * time.Millisecond)
	t.Cleanup(serverDriver.Stop)

	clientDriver := driver.New(client, objectstore.New())
	go clientDriver.Run(50 * time.Millisecond)
	t.Cleanup(clientDriver.Stop)

	return NewProxy(clientDriver)
}

type denyAll struct{}

func (denyAll) Authorize(transport.Credentials, authz.Operation) bool { return false }

func TestUnauthorizedCallIsRejected(t *testing.T) {
	reg := testRegistry(t)
	stub := NewStub(reg, transport.Credentials{UID: 1000})
	stub.SetAuthorizer(denyAll{})
	proxy := newProxyWithStub(t, stub)

	_, err := proxy.GetAllDevices()
	if err == nil {
		t.Fatal("expected an error from a denied call")
	}
}

func TestGetAllDevices(t *testing.T) {
	reg := testRegistry(t)
	proxy := newProxy(t, reg)

	devices, err := proxy.GetAllDevices()
	if err != nil {
		t.Fatalf("GetAllDevices: %v", err)
	}
	if len(devices) != 1 || devices[0] != addressing.Headstation {
		t.Errorf("expected [headstation], got %+v", devices)
	}
}

func TestGetAllParametersFiltersAndPages(t *testing.T) {
	reg := testRegistry(t)
	proxy := newProxy(t, reg)

	entries, total, err := proxy.GetAllParameters(addressing.OnlyWriteable(), 0, 10)
	if err != nil {
		t.Fatalf("GetAllParameters: %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Fatalf("expected two entries, got %d (total %d)", len(entries), total)
	}
	if entries[0].Path != "power/voltage" {
		t.Errorf("unexpected path: %q", entries[0].Path)
	}
	got, err := entries[0].Value.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v, err := got.GetUint16()
	if err != nil || v != 7 {
		t.Errorf("expected 7, got %d (err %v)", v, err)
	}

	_, total, err = proxy.GetAllParameters(addressing.OnlyFeature("nope"), 0, 10)
	if err != nil {
		t.Fatalf("GetAllParameters: %v", err)
	}
	if total != 0 {
		t.Errorf("expected zero matches for an unknown feature, got %d", total)
	}
}

func TestGetParametersByPathAndSetByPath(t *testing.T) {
	reg := testRegistry(t)
	proxy := newProxy(t, reg)

	path := addressing.ParameterInstancePath{ParameterPath: "power/voltage", DevicePath: "0-0"}
	entries, err := proxy.GetParametersByPath([]addressing.ParameterInstancePath{path})
	if err != nil {
		t.Fatalf("GetParametersByPath: %v", err)
	}
	if len(entries) != 1 || status.Code(entries[0].Code) != status.NoErrorYet {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	newValue, err := wire.EncodeValue(value.NewUint16(42))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	results, err := proxy.SetParameterValuesByPath([]WritePathValueRequest{{Path: path, Value: newValue}})
	if err != nil {
		t.Fatalf("SetParameterValuesByPath: %v", err)
	}
	if len(results) != 1 || status.Code(results[0].Code) != status.NoErrorYet {
		t.Fatalf("unexpected results: %+v", results)
	}

	entries, err = proxy.GetParametersByPath([]addressing.ParameterInstancePath{path})
	if err != nil {
		t.Fatalf("GetParametersByPath: %v", err)
	}
	got, err := entries[0].Value.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v, _ := got.GetUint16()
	if v != 42 {
		t.Errorf("expected 42 after write, got %d", v)
	}
}

func TestGetParametersByPathUnknownPath(t *testing.T) {
	reg := testRegistry(t)
	proxy := newProxy(t, reg)

	path := addressing.ParameterInstancePath{ParameterPath: "no/such/parameter", DevicePath: "0-0"}
	entries, err := proxy.GetParametersByPath([]addressing.ParameterInstancePath{path})
	if err != nil {
		t.Fatalf("GetParametersByPath: %v", err)
	}
	if len(entries) != 1 || status.Code(entries[0].Code) != status.UnknownParameterID {
		t.Fatalf("expected UnknownParameterID, got %+v", entries)
	}
}

func TestCreateAndRemoveParameterUploadID(t *testing.T) {
	reg := testRegistry(t)
	proxy := newProxy(t, reg)

	fileParam := addressing.ParameterInstanceID{ID: addressing.ParameterID(12), Device: addressing.Headstation}
	fileID, code, err := proxy.CreateParameterUploadID(fileParam)
	if err != nil {
		t.Fatalf("CreateParameterUploadID: %v", err)
	}
	if status.Code(code) != status.Success || fileID == "" {
		t.Fatalf("expected a minted upload id, got %q, code %v", fileID, code)
	}

	code, err = proxy.RemoveParameterUploadID(fileID)
	if err != nil {
		t.Fatalf("RemoveParameterUploadID: %v", err)
	}
	if status.Code(code) != status.Success {
		t.Fatalf("expected Success removing a live reservation, got %v", code)
	}

	code, err = proxy.RemoveParameterUploadID(fileID)
	if err != nil {
		t.Fatalf("RemoveParameterUploadID: %v", err)
	}
	if status.Code(code) != status.UnknownFileID {
		t.Fatalf("expected UnknownFileID removing an already-removed reservation, got %v", code)
	}
}

func TestCreateParameterUploadIDRejectsNonFileIDParameter(t *testing.T) {
	reg := testRegistry(t)
	proxy := newProxy(t, reg)

	voltageParam := addressing.ParameterInstanceID{ID: addressing.ParameterID(10), Device: addressing.Headstation}
	_, code, err := proxy.CreateParameterUploadID(voltageParam)
	if err != nil {
		t.Fatalf("CreateParameterUploadID: %v", err)
	}
	if status.Code(code) != status.NotAFileID {
		t.Fatalf("expected NotAFileID, got %v", code)
	}
}

func TestInvokeMethodByPath(t *testing.T) {
	reg := testRegistry(t)
	proxy := newProxy(t, reg)

	path := addressing.ParameterInstancePath{ParameterPath: "power/echo", DevicePath: "0-0"}
	out, code, err := proxy.InvokeMethodByPath(path, map[string]*value.Value{"in": value.NewUint16(9)})
	if err != nil {
		t.Fatalf("InvokeMethodByPath: %v", err)
	}
	if status.Code(code) != status.NoErrorYet {
		t.Fatalf("unexpected code: %v", code)
	}
	got, err := out["echo"].GetUint16()
	if err != nil || got != 9 {
		t.Errorf("expected echoed 9, got %d (err %v)", got, err)
	}
}
