package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// ExportIDHookFunc defines the signature for the NewExportID test hook.
// It returns an id and a boolean indicating whether to override the default
// generation.
type ExportIDHookFunc func() (id string, override bool)

// NewExportIDHook is a package-level variable that tests can set to override
// NewExportID behavior.
var NewExportIDHook ExportIDHookFunc

// ExportIDPrefix starts every generated export id.
const ExportIDPrefix = "EXP"

// exportSeq is the process-local sequence counter. It is seeded randomly so
// that two processes started in the same millisecond do not collide, and the
// store's unique index on _id catches the residual risk (inserts retry with a
// fresh id on duplicate key).
var exportSeq uint32

func init() {
	var seed [4]byte
	if _, err := rand.Read(seed[:]); err == nil {
		exportSeq = binary.BigEndian.Uint32(seed[:])
	}
}

// NewExportID generates an export id of the form
// EXP<unix_millis><4-digit sequence>.
func NewExportID() string {
	if NewExportIDHook != nil {
		if id, override := NewExportIDHook(); override {
			return id
		}
	}
	seq := atomic.AddUint32(&exportSeq, 1) % 10000
	return fmt.Sprintf("%s%d%04d", ExportIDPrefix, time.Now().UnixMilli(), seq)
}

// IsExportID reports whether s looks like a generated export id.
func IsExportID(s string) bool {
	if !strings.HasPrefix(s, ExportIDPrefix) {
		return false
	}
	digits := s[len(ExportIDPrefix):]
	if len(digits) < 5 { // at least some millis plus the sequence
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}
