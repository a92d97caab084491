package fileapi

import (
	"fmt"

	"github.com/wago-dev/wdx/internal/asyncresult"
	"github.com/wago-dev/wdx/internal/ipc/driver"
	"github.com/wago-dev/wdx/internal/ipc/objectstore"
	"github.com/wago-dev/wdx/internal/status"
)

// Proxy is the client-side handle either a provider or a client process
// uses to read and write bulk file content through wdxd. Reads and
// writes above a chunk's worth of data are split into sequential chunked
// calls transparently — the caller never sees ReadChunkSize/WriteChunkSize.
type Proxy struct {
	d *driver.Driver
}

// NewProxy returns a Proxy that issues calls over d to objectstore.FileAPI.
func NewProxy(d *driver.Driver) *Proxy {
	return &Proxy{d: d}
}

// Create reserves fileID with the given capacity.
func (p *Proxy) Create(fileID string, capacity uint64) (status.Code, error) {
	msg, err := asyncresult.Await(p.d.Call(objectstore.FileAPI, MethodFileCreate, fileCreateRequest{FileID: fileID, Capacity: capacity}))
	if err != nil {
		return 0, fmt.Errorf("fileapi: create: %w", err)
	}
	var resp statusResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return 0, err
	}
	return status.Code(resp.Code), nil
}

// GetInfo returns the highest offset of fileID that currently exists.
func (p *Proxy) GetInfo(fileID string) (uint64, status.Code, error) {
	msg, err := asyncresult.Await(p.d.Call(objectstore.FileAPI, MethodFileGetInfo, fileGetInfoRequest{FileID: fileID}))
	if err != nil {
		return 0, 0, fmt.Errorf("fileapi: get info: %w", err)
	}
	var resp fileGetInfoResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return 0, 0, err
	}
	return resp.Size, status.Code(resp.Code), nil
}

// Read reads exactly length bytes of fileID starting at offset, issuing
// as many ReadChunkSize-sized calls as needed and concatenating the
// results. It stops at the first chunk shorter than requested (treated
// as end-of-file) or the first error, returning whatever data it
// collected so far alongside that outcome's status code.
func (p *Proxy) Read(fileID string, offset, length uint64) ([]byte, status.Code, error) {
	var out []byte
	for length > 0 {
		want := uint32(ReadChunkSize)
		if length < uint64(want) {
			want = uint32(length)
		}
		data, code, err := p.readChunk(fileID, offset, want)
		if err != nil {
			return out, 0, err
		}
		out = append(out, data...)
		if code != status.Success {
			return out, code, nil
		}
		if uint32(len(data)) < want {
			return out, status.Success, nil
		}
		offset += uint64(len(data))
		length -= uint64(len(data))
	}
	return out, status.Success, nil
}

func (p *Proxy) readChunk(fileID string, offset uint64, length uint32) ([]byte, status.Code, error) {
	msg, err := asyncresult.Await(p.d.Call(objectstore.FileAPI, MethodFileRead, fileReadRequest{FileID: fileID, Offset: offset, Length: length}))
	if err != nil {
		return nil, 0, fmt.Errorf("fileapi: read: %w", err)
	}
	code, data, err := decodeReadResponse(msg.Payload)
	if err != nil {
		return nil, 0, err
	}
	return data, status.Code(code), nil
}

// Write writes data to fileID starting at offset, issuing as many
// WriteChunkSize-sized calls as needed. It stops and reports the first
// error or non-success status it encounters.
func (p *Proxy) Write(fileID string, offset uint64, data []byte) (status.Code, error) {
	for len(data) > 0 {
		n := WriteChunkSize
		if len(data) < n {
			n = len(data)
		}
		code, err := p.writeChunk(fileID, offset, data[:n])
		if err != nil {
			return 0, err
		}
		if code != status.Success {
			return code, nil
		}
		offset += uint64(n)
		data = data[n:]
	}
	return status.Success, nil
}

func (p *Proxy) writeChunk(fileID string, offset uint64, chunk []byte) (status.Code, error) {
	msg, err := asyncresult.Await(p.d.CallBinary(objectstore.FileAPI, MethodFileWrite, encodeWriteRequest(fileID, offset, chunk)))
	if err != nil {
		return 0, fmt.Errorf("fileapi: write: %w", err)
	}
	var resp statusResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return 0, err
	}
	return status.Code(resp.Code), nil
}
