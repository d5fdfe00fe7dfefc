package lms

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash"
	"github.com/nightlyone/lockfile"
)

const (
	anchorMagic   = "LMSA"
	anchorVersion = 1

	// magic || u32(version) || u32(mode) || u32(len(pk))
	anchorHeaderLen = 16
)

// A provisioned root public key together with the hash mode that
// signatures by it are verified with.
type TrustAnchor struct {
	Mode      HashMode
	PublicKey []byte // HSS public key
}

// Trust anchor store backed by two files:
//
//   path/to/anchor       the provisioned root public key
//   path/to/anchor.lock  a lockfile, held while provisioning
//
// The anchor file holds
//
//   "LMSA" || u32(version) || u32(mode) || u32(len(pk)) || pk || u64(xxhash)
//
// where the xxhash covers everything before it.
type AnchorStore struct {
	flock lockfile.Lockfile // file lock
	path  string            // absolute path of the anchor file
}

// Returns the trust anchor store at the given path.  The store need not
// exist yet; see Provision.
func OpenAnchorStore(path string) (*AnchorStore, Error) {
	var st AnchorStore
	var err error

	st.path, err = filepath.Abs(path)
	if err != nil {
		return nil, wrapErrorf(ErrInvalidParam, err,
			"Could not turn %s into an absolute path", path)
	}

	lockFilePath := st.path + ".lock"
	st.flock, err = lockfile.New(lockFilePath)
	if err != nil {
		return nil, wrapErrorf(ErrInvalidParam, err,
			"Failed to create lockfile %s", lockFilePath)
	}
	return &st, nil
}

// Returns the absolute path of the anchor file.
func (st *AnchorStore) Path() string {
	return st.path
}

// Returns whether a trust anchor has been provisioned.
func (st *AnchorStore) Initialized() bool {
	_, err := os.Stat(st.path)
	return err == nil
}

// Stores pk as trust anchor for signatures verified with the given hash
// mode.  Refuses to replace an existing anchor unless force is set.
func (st *AnchorStore) Provision(mode HashMode, pk []byte, force bool) Error {
	if !mode.Valid() {
		return errorf(ErrInvalidParam, "unknown hash mode %v", mode)
	}
	if _, err := ParseHssPublicKey(pk); err != nil {
		return err
	}
	keyMode, err := HashModeOf(PubAlgoHss, pk)
	if err != nil {
		return err
	}
	if keyMode != mode {
		return errorf(ErrTypeMismatch, "public key uses %v, not %v",
			keyMode, mode)
	}

	err2 := st.flock.TryLock()
	if _, ok := err2.(interface {
		Temporary() bool
	}); ok {
		err3 := errorf(ErrInvalidParam, "%s is locked", st.path)
		err3.locked = true
		return err3
	}
	if err2 != nil {
		return wrapErrorf(ErrInvalidParam, err2, "Failed to lock %s", st.path)
	}
	defer st.flock.Unlock()

	if !force && st.Initialized() {
		return errorf(ErrInvalidParam, "%s is already provisioned", st.path)
	}

	buf := encodeAnchor(mode, pk)
	tmpPath := st.path + ".tmp"
	if err := os.WriteFile(tmpPath, buf, 0644); err != nil {
		return wrapErrorf(ErrInvalidParam, err, "Failed to write %s", tmpPath)
	}
	if err := os.Rename(tmpPath, st.path); err != nil {
		os.Remove(tmpPath)
		return wrapErrorf(ErrInvalidParam, err,
			"Failed to rename %s to %s", tmpPath, st.path)
	}
	log.Logf("lms: provisioned %v trust anchor at %s", mode, st.path)
	return nil
}

// Reads the provisioned trust anchor.
func (st *AnchorStore) Load() (*TrustAnchor, Error) {
	buf, err := os.ReadFile(st.path)
	if err != nil {
		return nil, wrapErrorf(ErrInvalidParam, err,
			"Failed to read %s", st.path)
	}
	return decodeAnchor(buf)
}

func encodeAnchor(mode HashMode, pk []byte) []byte {
	buf := make([]byte, anchorHeaderLen, anchorHeaderLen+len(pk)+8)
	copy(buf, anchorMagic)
	encodeUint64Into(anchorVersion, buf[4:8])
	encodeUint64Into(uint64(mode), buf[8:12])
	encodeUint64Into(uint64(len(pk)), buf[12:16])
	buf = append(buf, pk...)
	return append(buf, encodeUint64(xxhash.Sum64(buf), 8)...)
}

func decodeAnchor(buf []byte) (*TrustAnchor, Error) {
	if len(buf) < anchorHeaderLen+8 {
		return nil, errorf(ErrLengthMismatch, "trust anchor of %d bytes",
			len(buf))
	}
	body, sum := buf[:len(buf)-8], buf[len(buf)-8:]
	if xxhash.Sum64(body) != decodeUint64(sum) {
		return nil, errorf(ErrInvalidParam, "trust anchor checksum mismatch")
	}
	if !bytes.Equal(body[:4], []byte(anchorMagic)) {
		return nil, errorf(ErrInvalidParam, "not a trust anchor")
	}
	if version := decodeUint32(body[4:]); version != anchorVersion {
		return nil, errorf(ErrUnsupportedType,
			"trust anchor version %d", version)
	}
	mode := HashMode(decodeUint32(body[8:]))
	if !mode.Valid() {
		return nil, errorf(ErrInvalidParam, "unknown hash mode %v", mode)
	}
	pkLen := decodeUint32(body[12:])
	if uint64(pkLen) != uint64(len(body)-anchorHeaderLen) {
		return nil, errorf(ErrLengthMismatch,
			"trust anchor key of %d bytes, but %d stored",
			pkLen, len(body)-anchorHeaderLen)
	}
	pk := append([]byte(nil), body[anchorHeaderLen:]...)
	return &TrustAnchor{Mode: mode, PublicKey: pk}, nil
}

// Returns a Verifier for signatures by this trust anchor.
func (a *TrustAnchor) NewVerifier(opts *Options) (*Verifier, Error) {
	return NewVerifier(a.Mode, opts)
}

// Checks whether sig is a valid HSS signature of msg by the trust anchor.
func (a *TrustAnchor) Verify(sig, msg []byte) Error {
	v, err := a.NewVerifier(nil)
	if err != nil {
		return err
	}
	return v.Verify(a.PublicKey, sig, msg)
}
