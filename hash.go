package lms

import (
	"crypto/sha256"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"
	"golang.org/x/sys/cpu"
)

// Hash function family used by a trust anchor and its keys.
type HashMode uint32

const (
	SHA256   HashMode = 1 // SHA-256, truncated to 24 bytes for N24/M24
	SHAKE256 HashMode = 2 // SHAKE256 with 32 or 24 bytes of output
)

func (mode HashMode) String() string {
	switch mode {
	case SHA256:
		return "SHA256"
	case SHAKE256:
		return "SHAKE256"
	}
	return fmt.Sprintf("HashMode(%d)", uint32(mode))
}

// Returns whether mode is a known hash mode.
func (mode HashMode) Valid() bool {
	return mode == SHA256 || mode == SHAKE256
}

// A hash engine as offered by a (hardware) hash accelerator.
//
// A digest is computed by calling Start, then Update any number of times,
// then LastUpdate followed by one more (final) Update and finally Finish.
// After an error the engine should be Reset before it is used again.
type Engine interface {
	// Start a new digest with the given hash function.
	Start(mode HashMode) error

	// Feed data into the digest.
	Update(data []byte) error

	// Marks the next call to Update as the last.
	LastUpdate() error

	// Writes the first len(out) bytes of the digest into out.
	Finish(out []byte) error

	// Discards any partial state.
	Reset()
}

// Engine backed by crypto/sha256 and golang.org/x/crypto/sha3.
type softwareEngine struct {
	mode    HashMode
	started bool
	last    bool // next Update is the final one
	done    bool // final Update has been received
	sha     hash.Hash
	shake   sha3.ShakeHash
	sum     [sha256.Size]byte
}

// Returns an Engine that computes hashes in software.
func NewSoftwareEngine() Engine {
	return &softwareEngine{}
}

func (e *softwareEngine) Start(mode HashMode) error {
	e.Reset()
	switch mode {
	case SHA256:
		if e.sha == nil {
			e.sha = sha256.New()
		} else {
			e.sha.Reset()
		}
	case SHAKE256:
		if e.shake == nil {
			e.shake = sha3.NewShake256()
		} else {
			e.shake.Reset()
		}
	default:
		return errorf(ErrInvalidParam, "unknown hash mode %v", mode)
	}
	e.mode = mode
	e.started = true
	return nil
}

func (e *softwareEngine) Update(data []byte) error {
	if !e.started || e.done {
		return errorf(ErrEngineFailure, "Update outside of a digest")
	}
	if e.mode == SHA256 {
		e.sha.Write(data)
	} else {
		e.shake.Write(data)
	}
	if e.last {
		e.done = true
	}
	return nil
}

func (e *softwareEngine) LastUpdate() error {
	if !e.started || e.last {
		return errorf(ErrEngineFailure, "unexpected LastUpdate")
	}
	e.last = true
	return nil
}

func (e *softwareEngine) Finish(out []byte) error {
	if !e.done {
		return errorf(ErrEngineFailure, "Finish before final Update")
	}
	if e.mode == SHA256 {
		if len(out) > sha256.Size {
			return errorf(ErrEngineFailure,
				"requested %d bytes of a SHA256 digest", len(out))
		}
		copy(out, e.sha.Sum(e.sum[:0]))
		zeroize(e.sum[:])
	} else {
		e.shake.Read(out)
	}
	e.Reset()
	return nil
}

func (e *softwareEngine) Reset() {
	e.started = false
	e.last = false
	e.done = false
	if e.sha != nil {
		e.sha.Reset()
	}
	if e.shake != nil {
		e.shake.Reset()
	}
}

// Returns whether the CPU has dedicated SHA-256 or SHA-3 instructions.
// x86 SHA extensions are not reported by x/sys/cpu and count as absent.
// Purely informational: the software engine works everywhere.
func HardwareAssisted() bool {
	return cpu.ARM64.HasSHA2 || cpu.ARM64.HasSHA3 || cpu.ARM.HasSHA2 ||
		cpu.S390X.HasSHA256 || cpu.S390X.HasSHA3
}
