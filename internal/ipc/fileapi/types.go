// Package fileapi implements the bulk file-transfer IPC interface: a
// client-side Proxy that reads and writes named files in fixed-size
// chunks, transparently to the caller, and the Stub hosted by wdxd at
// objectstore.FileAPI that answers those chunked calls against an
// in-memory FileStore. File ids are opaque strings the caller mints
// itself — distinct from the provider-minted upload ids
// internal/registry hands out for the set_parameter_values upload
// handshake.
//
// file_read's response and file_write's request carry the bulk bytes in
// the compact binary encoding rather than JSON, the same tradeoff
// internal/ipc/wire documents for "bulk binary types such as file_read
// payloads": a JSON/base64 envelope would otherwise inflate a
// already-near-the-frame-limit chunk by another third.
package fileapi

import (
	"encoding/binary"
	"fmt"
)

// Method ids for the file-api object (objectstore.FileAPI).
const (
	MethodFileRead uint32 = iota + 1
	MethodFileWrite
	MethodFileCreate
	MethodFileGetInfo
)

// Chunk sizes the proxy splits read/write calls into, per spec: a read
// chunk of 128 KiB, a write chunk of 2048 KiB. Both are comfortably under
// wire.MaxFrameSize once chunk framing overhead is added.
const (
	ReadChunkSize  = 128 * 1024
	WriteChunkSize = 2048 * 1024
)

type fileCreateRequest struct {
	FileID   string `json:"file_id"`
	Capacity uint64 `json:"capacity"`
}

type fileGetInfoRequest struct {
	FileID string `json:"file_id"`
}

// fileGetInfoResponse.Size is the highest offset of the file that exists,
// usable by a caller doing a partial, sequential upload to find which
// segment to send next.
type fileGetInfoResponse struct {
	Size uint64 `json:"size"`
	Code int    `json:"code"`
}

type statusResponse struct {
	Code int `json:"code"`
}

type fileReadRequest struct {
	FileID string `json:"file_id"`
	Offset uint64 `json:"offset"`
	Length uint32 `json:"length"`
}

// encodeReadResponse lays out a file_read answer as: 2-byte big-endian
// status code, 4-byte big-endian data length, then data.
func encodeReadResponse(code int, data []byte) []byte {
	out := make([]byte, 6+len(data))
	binary.BigEndian.PutUint16(out, uint16(code))
	binary.BigEndian.PutUint32(out[2:], uint32(len(data)))
	copy(out[6:], data)
	return out
}

func decodeReadResponse(payload []byte) (int, []byte, error) {
	if len(payload) < 6 {
		return 0, nil, fmt.Errorf("fileapi: truncated file_read response")
	}
	code := int(binary.BigEndian.Uint16(payload))
	n := binary.BigEndian.Uint32(payload[2:])
	if uint32(len(payload[6:])) < n {
		return 0, nil, fmt.Errorf("fileapi: truncated file_read data")
	}
	return code, payload[6 : 6+n], nil
}

// encodeWriteRequest lays out a file_write request as: 2-byte big-endian
// file id length, file id bytes, 8-byte big-endian offset, 4-byte
// big-endian data length, then data.
func encodeWriteRequest(fileID string, offset uint64, data []byte) []byte {
	out := make([]byte, 2+len(fileID)+8+4+len(data))
	binary.BigEndian.PutUint16(out, uint16(len(fileID)))
	copy(out[2:], fileID)
	pos := 2 + len(fileID)
	binary.BigEndian.PutUint64(out[pos:], offset)
	pos += 8
	binary.BigEndian.PutUint32(out[pos:], uint32(len(data)))
	copy(out[pos+4:], data)
	return out
}

func decodeWriteRequest(payload []byte) (fileID string, offset uint64, data []byte, err error) {
	if len(payload) < 2 {
		return "", 0, nil, fmt.Errorf("fileapi: truncated file_write request")
	}
	idLen := int(binary.BigEndian.Uint16(payload))
	pos := 2
	if len(payload) < pos+idLen+8+4 {
		return "", 0, nil, fmt.Errorf("fileapi: truncated file_write request")
	}
	fileID = string(payload[pos : pos+idLen])
	pos += idLen
	offset = binary.BigEndian.Uint64(payload[pos:])
	pos += 8
	n := binary.BigEndian.Uint32(payload[pos:])
	pos += 4
	if uint32(len(payload[pos:])) < n {
		return "", 0, nil, fmt.Errorf("fileapi: truncated file_write data")
	}
	return fileID, offset, payload[pos : pos+int(n)], nil
}
