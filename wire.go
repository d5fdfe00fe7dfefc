package lms

// Typed views of the RFC 8554 wire formats.  The verifier itself works on
// the raw bytes; these are for tooling that wants to inspect keys and
// signatures.

// LMS public key: u32(type) || u32(otstype) || I || T
type PublicKey struct {
	Type    LmsType
	OtsType OtsType
	I       [idLen]byte
	T       []byte // root of the tree
}

// HSS public key: u32(L) || LMS public key
type HssPublicKey struct {
	Levels uint32
	Key    PublicKey
}

// LM-OTS signature: u32(otstype) || C || y[0] || ... || y[p-1]
type OtsSignature struct {
	Type OtsType
	C    []byte
	Y    []byte // p chain values of n bytes each
}

// LMS signature: u32(q) || LM-OTS signature || u32(type) || path
type Signature struct {
	Q    uint32
	Ots  OtsSignature
	Type LmsType
	Path []byte // h nodes of m bytes each
}

// A signature of a lower level public key by a higher level.
type SignedPublicKey struct {
	Sig Signature
	Key PublicKey
}

// HSS signature: u32(L-1) || signed public keys || LMS signature
type HssSignature struct {
	Signed []SignedPublicKey
	Sig    Signature
}

// Returns the number of levels of the signature.
func (sig *HssSignature) Levels() uint32 {
	return uint32(len(sig.Signed)) + 1
}

// Parses an LMS public key.  The types must be supported, but the hash
// mode is not checked.
func ParsePublicKey(buf []byte) (*PublicKey, Error) {
	pk, rest, err := parsePublicKey(buf)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errorf(ErrLengthMismatch,
			"%d trailing bytes after public key", len(rest))
	}
	return pk, nil
}

func parsePublicKey(buf []byte) (*PublicKey, []byte, Error) {
	if len(buf) < 8 {
		return nil, nil, errorf(ErrLengthMismatch,
			"LMS public key of %d bytes", len(buf))
	}
	var pk PublicKey
	pk.Type = LmsType(decodeUint32(buf))
	pk.OtsType = OtsType(decodeUint32(buf[4:]))
	lp, err := LmsLookup(pk.Type)
	if err != nil {
		return nil, nil, err
	}
	if _, err := OtsLookup(pk.OtsType); err != nil {
		return nil, nil, err
	}
	if uint32(len(buf)) < lp.PublicKeyLen() {
		return nil, nil, errorf(ErrLengthMismatch,
			"%v public key of %d bytes", pk.Type, len(buf))
	}
	copy(pk.I[:], buf[8:8+idLen])
	pk.T = append([]byte(nil), buf[8+idLen:lp.PublicKeyLen()]...)
	return &pk, buf[lp.PublicKeyLen():], nil
}

// Returns the parameters of the LMS and LM-OTS algorithms of the key.
func (pk *PublicKey) Params() (*Params, *OtsParams, Error) {
	lp, err := LmsLookup(pk.Type)
	if err != nil {
		return nil, nil, err
	}
	op, err := OtsLookup(pk.OtsType)
	if err != nil {
		return nil, nil, err
	}
	return lp, op, nil
}

// Returns the wire encoding of the public key.
// Will never return an error.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	ret := make([]byte, pk.wireLen())
	pk.writeInto(ret)
	return ret, nil
}

func (pk *PublicKey) wireLen() int {
	return 8 + idLen + len(pk.T)
}

// Writes the wire encoding into buf and returns the number of bytes written.
func (pk *PublicKey) writeInto(buf []byte) int {
	encodeUint64Into(uint64(pk.Type), buf[:4])
	encodeUint64Into(uint64(pk.OtsType), buf[4:8])
	copy(buf[8:], pk.I[:])
	copy(buf[8+idLen:], pk.T)
	return pk.wireLen()
}

// Parses an HSS public key.
func ParseHssPublicKey(buf []byte) (*HssPublicKey, Error) {
	if len(buf) < 4 {
		return nil, errorf(ErrLengthMismatch,
			"HSS public key of %d bytes", len(buf))
	}
	levels := decodeUint32(buf)
	if levels < 1 || levels > MaxLevelsLimit {
		return nil, errorf(ErrSignLevelUnsupported,
			"public key has %d levels", levels)
	}
	pk, err := ParsePublicKey(buf[4:])
	if err != nil {
		return nil, err
	}
	return &HssPublicKey{Levels: levels, Key: *pk}, nil
}

// Returns the wire encoding of the HSS public key.
// Will never return an error.
func (pk *HssPublicKey) MarshalBinary() ([]byte, error) {
	ret := make([]byte, 4+pk.Key.wireLen())
	encodeUint64Into(uint64(pk.Levels), ret[:4])
	pk.Key.writeInto(ret[4:])
	return ret, nil
}

// Parses an LM-OTS signature.
func ParseOtsSignature(buf []byte) (*OtsSignature, Error) {
	if len(buf) < 4 {
		return nil, errorf(ErrLengthMismatch,
			"LM-OTS signature of %d bytes", len(buf))
	}
	var sig OtsSignature
	sig.Type = OtsType(decodeUint32(buf))
	op, err := OtsLookup(sig.Type)
	if err != nil {
		return nil, err
	}
	if uint32(len(buf)) != op.SigLen {
		return nil, errorf(ErrLengthMismatch,
			"%v signature of %d bytes", sig.Type, len(buf))
	}
	sig.C = append([]byte(nil), buf[4:4+op.N]...)
	sig.Y = append([]byte(nil), buf[4+op.N:]...)
	return &sig, nil
}

// Returns the wire encoding of the LM-OTS signature.
// Will never return an error.
func (sig *OtsSignature) MarshalBinary() ([]byte, error) {
	ret := make([]byte, sig.wireLen())
	sig.writeInto(ret)
	return ret, nil
}

func (sig *OtsSignature) wireLen() int {
	return 4 + len(sig.C) + len(sig.Y)
}

func (sig *OtsSignature) writeInto(buf []byte) int {
	encodeUint64Into(uint64(sig.Type), buf[:4])
	copy(buf[4:], sig.C)
	copy(buf[4+len(sig.C):], sig.Y)
	return sig.wireLen()
}

// Parses an LMS signature.
func ParseSignature(buf []byte) (*Signature, Error) {
	sig, rest, err := parseSignature(buf)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errorf(ErrLengthMismatch,
			"%d trailing bytes after signature", len(rest))
	}
	return sig, nil
}

func parseSignature(buf []byte) (*Signature, []byte, Error) {
	if len(buf) < 8 {
		return nil, nil, errorf(ErrLengthMismatch,
			"LMS signature of %d bytes", len(buf))
	}
	var sig Signature
	sig.Q = decodeUint32(buf)
	op, err := OtsLookup(OtsType(decodeUint32(buf[4:])))
	if err != nil {
		return nil, nil, err
	}
	otsEnd := 4 + op.SigLen
	if uint32(len(buf)) < otsEnd+4 {
		return nil, nil, errorf(ErrLengthMismatch,
			"LMS signature of %d bytes", len(buf))
	}
	ots, err := ParseOtsSignature(buf[4:otsEnd])
	if err != nil {
		return nil, nil, err
	}
	sig.Ots = *ots
	sig.Type = LmsType(decodeUint32(buf[otsEnd:]))
	lp, err := LmsLookup(sig.Type)
	if err != nil {
		return nil, nil, err
	}
	if uint64(sig.Q) >= lp.Leaves() {
		return nil, nil, errorf(ErrNodeOutOfRange, "leaf %d of %v",
			sig.Q, sig.Type)
	}
	end := lp.SignatureLen(op)
	if uint32(len(buf)) < end {
		return nil, nil, errorf(ErrLengthMismatch,
			"%v signature of %d bytes", sig.Type, len(buf))
	}
	sig.Path = append([]byte(nil), buf[otsEnd+4:end]...)
	return &sig, buf[end:], nil
}

// Returns the wire encoding of the LMS signature.
// Will never return an error.
func (sig *Signature) MarshalBinary() ([]byte, error) {
	ret := make([]byte, sig.wireLen())
	sig.writeInto(ret)
	return ret, nil
}

func (sig *Signature) wireLen() int {
	return 8 + sig.Ots.wireLen() + len(sig.Path)
}

func (sig *Signature) writeInto(buf []byte) int {
	encodeUint64Into(uint64(sig.Q), buf[:4])
	off := 4 + sig.Ots.writeInto(buf[4:])
	encodeUint64Into(uint64(sig.Type), buf[off:off+4])
	copy(buf[off+4:], sig.Path)
	return sig.wireLen()
}

// Parses an HSS signature.
func ParseHssSignature(buf []byte) (*HssSignature, Error) {
	if len(buf) < 4 {
		return nil, errorf(ErrLengthMismatch,
			"HSS signature of %d bytes", len(buf))
	}
	nspk := decodeUint32(buf)
	if nspk >= MaxLevelsLimit {
		return nil, errorf(ErrSignLevelUnsupported,
			"signature has %d levels", uint64(nspk)+1)
	}
	var ret HssSignature
	rest := buf[4:]
	var i uint32
	for i = 0; i < nspk; i++ {
		sig, r, err := parseSignature(rest)
		if err != nil {
			return nil, err
		}
		pk, r, err := parsePublicKey(r)
		if err != nil {
			return nil, err
		}
		ret.Signed = append(ret.Signed, SignedPublicKey{*sig, *pk})
		rest = r
	}
	sig, err := ParseSignature(rest)
	if err != nil {
		return nil, err
	}
	ret.Sig = *sig
	return &ret, nil
}

// Returns the wire encoding of the HSS signature.
// Will never return an error.
func (sig *HssSignature) MarshalBinary() ([]byte, error) {
	size := 4 + sig.Sig.wireLen()
	for i := range sig.Signed {
		size += sig.Signed[i].Sig.wireLen() + sig.Signed[i].Key.wireLen()
	}
	ret := make([]byte, size)
	encodeUint64Into(uint64(len(sig.Signed)), ret[:4])
	off := 4
	for i := range sig.Signed {
		off += sig.Signed[i].Sig.writeInto(ret[off:])
		off += sig.Signed[i].Key.writeInto(ret[off:])
	}
	sig.Sig.writeInto(ret[off:])
	return ret, nil
}
