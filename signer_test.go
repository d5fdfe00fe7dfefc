package lms

import (
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/sha3"
)

// Reference LMS signer for tests, following RFC 8554 section 5 and the
// pseudorandom key generation of appendix A.  It hashes without the
// Engine so that it doubles as a cross-check of the verifier.
type testSigner struct {
	lp   *Params
	op   *OtsParams
	id   [idLen]byte
	seed []byte
	tree [][]byte // T[r] for 1 <= r < 2^(h+1)
}

func testHash(mode HashMode, n uint32, parts ...[]byte) []byte {
	if mode == SHA256 {
		h := sha256.New()
		for _, part := range parts {
			h.Write(part)
		}
		return h.Sum(nil)[:n]
	}
	h := sha3.NewShake256()
	for _, part := range parts {
		h.Write(part)
	}
	ret := make([]byte, n)
	h.Read(ret)
	return ret
}

func u32(x uint32) []byte { return encodeUint64(uint64(x), 4) }
func u16(x uint32) []byte { return encodeUint64(uint64(x), 2) }

// Creates the tree of a new key pair deterministically from tag.
func newTestSigner(lmsName, otsName string, tag byte) *testSigner {
	s := &testSigner{
		lp: ParamsFromName(lmsName),
		op: OtsParamsFromName(otsName),
	}
	if s.lp == nil || s.op == nil {
		panic("unknown parameter set " + lmsName + "/" + otsName)
	}
	for i := range s.id {
		s.id[i] = tag ^ byte(7*i)
	}
	s.seed = make([]byte, s.op.N)
	for i := range s.seed {
		s.seed[i] = tag + byte(i)
	}

	leaves := uint32(1) << s.lp.H
	s.tree = make([][]byte, 2*leaves)
	var q uint32
	for q = 0; q < leaves; q++ {
		r := leaves + q
		s.tree[r] = s.hash(u32(r), u16(D_LEAF), s.otsPublicKey(q))
	}
	for r := leaves - 1; r >= 1; r-- {
		s.tree[r] = s.hash(u32(r), u16(D_INTR), s.tree[2*r], s.tree[2*r+1])
	}
	return s
}

func (s *testSigner) hash(parts ...[]byte) []byte {
	return testHash(s.op.Hash, s.op.N, append([][]byte{s.id[:]}, parts...)...)
}

// x_q[i] = H(I || u32(q) || u16(i) || u8(0xff) || SEED)
func (s *testSigner) otsPrivate(q, i uint32) []byte {
	return s.hash(u32(q), u16(i), []byte{0xff}, s.seed)
}

// Applies steps [from, to) of chain i of leaf q to x.
func (s *testSigner) chain(q, i, from, to uint32, x []byte) []byte {
	for j := from; j < to; j++ {
		x = s.hash(u32(q), u16(i), []byte{byte(j)}, x)
	}
	return x
}

func (s *testSigner) otsPublicKey(q uint32) []byte {
	var z []byte
	var i uint32
	for i = 0; i < s.op.P; i++ {
		z = append(z, s.chain(q, i, 0, s.op.Mask(), s.otsPrivate(q, i))...)
	}
	return s.hash(u32(q), u16(D_PBLC), z)
}

func (s *testSigner) publicKey() []byte {
	pk := PublicKey{Type: s.lp.Type, OtsType: s.op.Type, I: s.id, T: s.tree[1]}
	ret, _ := pk.MarshalBinary()
	return ret
}

func (s *testSigner) hssPublicKey(levels uint32) []byte {
	return append(u32(levels), s.publicKey()...)
}

// Returns the LMS signature of msg by leaf q.
func (s *testSigner) sign(q uint32, msg []byte) []byte {
	c := s.hash(u32(q), u16(0xfffd), []byte{0xff}, s.seed)
	digest := s.hash(u32(q), u16(D_MESG), c, msg)
	cksm, err := Checksum(digest, s.op.W, s.op.Ls)
	if err != nil {
		panic(err)
	}
	digest = append(digest, u16(uint32(cksm))...)

	var y []byte
	var i uint32
	for i = 0; i < s.op.P; i++ {
		a := Coeff(digest, i, s.op.W)
		y = append(y, s.chain(q, i, 0, a, s.otsPrivate(q, i))...)
	}

	var path []byte
	r := (uint32(1) << s.lp.H) + q
	for ; r > 1; r >>= 1 {
		path = append(path, s.tree[r^1]...)
	}

	sig := Signature{
		Q:    q,
		Ots:  OtsSignature{Type: s.op.Type, C: c, Y: y},
		Type: s.lp.Type,
		Path: path,
	}
	ret, _ := sig.MarshalBinary()
	return ret
}

// HSS key pair for tests: signers[0] is the root.
type testHss []*testSigner

func newTestHss(lmsName, otsName string, levels int) testHss {
	var ret testHss
	for i := 0; i < levels; i++ {
		ret = append(ret, newTestSigner(lmsName, otsName, byte(0x10*(i+1))))
	}
	return ret
}

func (h testHss) publicKey() []byte {
	return h[0].hssPublicKey(uint32(len(h)))
}

// Signs msg using leaf qs[i] on level i.
func (h testHss) sign(qs []uint32, msg []byte) []byte {
	ret := u32(uint32(len(h) - 1))
	for i := 0; i+1 < len(h); i++ {
		child := h[i+1].publicKey()
		ret = append(ret, h[i].sign(qs[i], child)...)
		ret = append(ret, child...)
	}
	return append(ret, h[len(h)-1].sign(qs[len(h)-1], msg)...)
}

// Engine that counts the digests started and the resets.
type countingEngine struct {
	Engine
	starts int
	resets int
}

func newCountingEngine() *countingEngine {
	return &countingEngine{Engine: NewSoftwareEngine()}
}

func (e *countingEngine) Start(mode HashMode) error {
	e.starts++
	return e.Engine.Start(mode)
}

func (e *countingEngine) Reset() {
	e.resets++
	e.Engine.Reset()
}

var errTimeout = errors.New("timeout")

// Engine whose failAt'th call to Finish fails.
type faultyEngine struct {
	countingEngine
	failAt   int
	finishes int
}

func newFaultyEngine(failAt int) *faultyEngine {
	return &faultyEngine{
		countingEngine: countingEngine{Engine: NewSoftwareEngine()},
		failAt:         failAt,
	}
}

func (e *faultyEngine) Finish(out []byte) error {
	e.finishes++
	if e.finishes == e.failAt {
		return errTimeout
	}
	return e.Engine.Finish(out)
}
