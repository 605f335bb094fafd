package gfx

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func cacheHeaderBytes(t *testing.T, header pipelineCacheHeader) []byte {
	t.Helper()

	var buf bytes.Buffer
	err := binary.Write(&buf, binary.LittleEndian, header)
	if err != nil {
		t.Fatal(err)
	}
	// Driver payload follows the header.
	buf.Write([]byte{1, 2, 3, 4})
	return buf.Bytes()
}

func TestCheckPipelineCacheHeader(t *testing.T) {
	cacheUUID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	good := pipelineCacheHeader{
		HeaderLength:  32,
		HeaderVersion: pipelineCacheHeaderVersionOne,
		VendorID:      0x10de,
		DeviceID:      0x2206,
		CacheUUID:     cacheUUID,
	}

	err := checkPipelineCacheHeader(cacheHeaderBytes(t, good), 0x10de, 0x2206, cacheUUID)
	if err != nil {
		t.Fatalf("valid header rejected: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*pipelineCacheHeader)
		want   string
	}{
		{"length", func(h *pipelineCacheHeader) { h.HeaderLength = 0 }, "header length"},
		{"version", func(h *pipelineCacheHeader) { h.HeaderVersion = 2 }, "header version"},
		{"vendor", func(h *pipelineCacheHeader) { h.VendorID = 0x1002 }, "vendor ID"},
		{"device", func(h *pipelineCacheHeader) { h.DeviceID = 1 }, "device ID"},
		{"uuid", func(h *pipelineCacheHeader) { h.CacheUUID = uuid.New() }, "UUID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := good
			tt.modify(&header)

			err := checkPipelineCacheHeader(cacheHeaderBytes(t, header), 0x10de, 0x2206, cacheUUID)
			if err == nil {
				t.Fatal("bad header accepted")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestCheckPipelineCacheHeaderTruncated(t *testing.T) {
	err := checkPipelineCacheHeader([]byte{32, 0, 0, 0, 1}, 0, 0, uuid.Nil)
	if err == nil {
		t.Fatal("truncated header accepted")
	}
}
