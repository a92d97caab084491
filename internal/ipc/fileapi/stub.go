package fileapi

import (
	"fmt"

	"github.com/wago-dev/wdx/internal/ipc/wire"
)

// Stub is the server-side file-api object, hosted at objectstore.FileAPI.
// It answers every connected client against the same FileStore, since a
// file written by one process is meant to be read by another.
type Stub struct {
	store *FileStore
}

// NewStub returns a Stub answering file-api calls against store.
func NewStub(store *FileStore) *Stub {
	return &Stub{store: store}
}

func (s *Stub) Call(req wire.Message) (wire.Message, error) {
	switch req.MethodID {
	case MethodFileRead:
		return s.fileRead(req)
	case MethodFileWrite:
		return s.fileWrite(req)
	case MethodFileCreate:
		return s.fileCreate(req)
	case MethodFileGetInfo:
		return s.fileGetInfo(req)
	default:
		return wire.Message{}, fmt.Errorf("fileapi: unknown method id %d", req.MethodID)
	}
}

func (s *Stub) fileRead(req wire.Message) (wire.Message, error) {
	var in fileReadRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}
	data, code := s.store.Read(in.FileID, in.Offset, in.Length)
	payload := encodeReadResponse(int(code), data)
	return wire.NewBinaryResponse(req.ObjectID, req.MethodID, req.Seq, payload), nil
}

func (s *Stub) fileWrite(req wire.Message) (wire.Message, error) {
	fileID, offset, data, err := decodeWriteRequest(req.Payload)
	if err != nil {
		return wire.Message{}, err
	}
	code := s.store.Write(fileID, offset, data)
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, statusResponse{Code: int(code)})
}

func (s *Stub) fileCreate(req wire.Message) (wire.Message, error) {
	var in fileCreateRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}
	code := s.store.Create(in.FileID, in.Capacity)
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, statusResponse{Code: int(code)})
}

func (s *Stub) fileGetInfo(req wire.Message) (wire.Message, error) {
	var in fileGetInfoRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}
	size, code := s.store.Info(in.FileID)
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, fileGetInfoResponse{Size: size, Code: int(code)})
}
