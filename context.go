package lms

// Buffers used during a single verification.  A scratchPad is owned by
// one Verifier and wiped (see zeroize) whenever a verification ends.
type scratchPad struct {
	engine Engine
	mode   HashMode

	buf    []byte // backing store of the slices below
	chain  []byte // I || u32(q) || u16(i) || u8(j) || tmp
	digest []byte // Q || Cksm(Q)
	z      []byte // ends of the LM-OTS chains
	node   []byte // I || u32(r) || u16(D) || left || right
	kc     []byte // candidate LM-OTS public key
	diff   []byte // root XOR expected root
}

func newScratchPad(engine Engine, mode HashMode) scratchPad {
	n := int(maxN)
	chainLen := chainAddrLen + n
	digestLen := n + 2
	zLen := int(maxOtsP) * n
	nodeLen := nodeAddrLen + 2*n

	pad := scratchPad{
		engine: engine,
		mode:   mode,
		buf:    make([]byte, chainLen+digestLen+zLen+nodeLen+2*n),
	}
	buf := pad.buf
	pad.chain, buf = buf[:chainLen], buf[chainLen:]
	pad.digest, buf = buf[:digestLen], buf[digestLen:]
	pad.z, buf = buf[:zLen], buf[zLen:]
	pad.node, buf = buf[:nodeLen], buf[nodeLen:]
	pad.kc, buf = buf[:n], buf[n:]
	pad.diff = buf[:n]
	return pad
}

// Computes H(parts[0] || ... || parts[len(parts)-1]) and writes the first
// len(out) bytes into out.  The engine is reset on failure.
func (pad *scratchPad) hash(out []byte, parts ...[]byte) Error {
	if err := pad.engine.Start(pad.mode); err != nil {
		return pad.engineFailed(err, "Start")
	}
	for _, part := range parts[:len(parts)-1] {
		if err := pad.engine.Update(part); err != nil {
			return pad.engineFailed(err, "Update")
		}
	}
	if err := pad.engine.LastUpdate(); err != nil {
		return pad.engineFailed(err, "LastUpdate")
	}
	if err := pad.engine.Update(parts[len(parts)-1]); err != nil {
		return pad.engineFailed(err, "Update")
	}
	if err := pad.engine.Finish(out); err != nil {
		return pad.engineFailed(err, "Finish")
	}
	return nil
}

func (pad *scratchPad) engineFailed(err error, step string) Error {
	pad.engine.Reset()
	return wrapErrorf(ErrEngineFailure, err, "%s", step)
}

// Checks that the hash function of the given algorithms is the one the
// scratch pad was set up for, and that both use the same hash length.
func (pad *scratchPad) checkHash(lp *Params, op *OtsParams) Error {
	if lp.Hash != pad.mode || op.Hash != pad.mode {
		return errorf(ErrTypeMismatch,
			"%s with %s does not use %v", lp.Name(), op.Name(), pad.mode)
	}
	if lp.M != op.N {
		return errorf(ErrTypeMismatch, "%s with %s mixes hash lengths",
			lp.Name(), op.Name())
	}
	return nil
}

// Wipes all buffers and resets the engine.
func (pad *scratchPad) zeroize() {
	zeroize(pad.buf)
	pad.engine.Reset()
}

// Progress of a Verifier through an HSS verification.
type verifyState uint8

const (
	stateUninit verifyState = iota
	stateLevelsValidated
	stateUpperLevelsVerified
	stateMessageHashed
	stateAuthenticated
	stateFailed
)

var stateNames = []string{
	"uninitialized",
	"levels validated",
	"upper levels verified",
	"message hashed",
	"authenticated",
	"failed",
}

func (s verifyState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Verifies HSS signatures against a trust anchor public key.
//
// A verification is split in three steps so that the (possibly large)
// message can be streamed: HssInit checks the signature chain down to the
// last level, HashMessage (or Write) digests the message and HssFinish
// checks the last level.  Any failure is final until Reset is called.
//
// A Verifier is not safe for concurrent use.
type Verifier struct {
	pad       scratchPad
	maxLevels uint32
	state     verifyState
	hashing   bool // message digest has been started on the engine

	levels     uint32
	consumed   uint32 // bytes of the signature checked by HssInit
	lastSigLen uint32 // expected length of the last level signature
	n          uint32 // hash length of the last level

	key    []byte // authenticated public key of the last level
	keyLen uint32
	q      uint32 // leaf used by the last level signature
	c      []byte // randomizer C of the last level signature
	digest []byte // message hash Q
}

func newVerifier(engine Engine, mode HashMode, maxLevels uint32) *Verifier {
	n := int(maxN)
	buf := make([]byte, 8+idLen+3*n)
	return &Verifier{
		pad:       newScratchPad(engine, mode),
		maxLevels: maxLevels,
		key:       buf[:8+idLen+n],
		c:         buf[8+idLen+n : 8+idLen+2*n],
		digest:    buf[8+idLen+2*n:],
	}
}

// Wipes all secrets and intermediate values; the Verifier returns to the
// uninitialized state.
func (v *Verifier) wipe() {
	v.pad.zeroize()
	zeroize(v.key)
	zeroize(v.c)
	zeroize(v.digest)
	v.hashing = false
	v.levels = 0
	v.consumed = 0
	v.lastSigLen = 0
	v.n = 0
	v.keyLen = 0
	v.q = 0
	v.state = stateUninit
}

// Moves the Verifier into the failed state.
func (v *Verifier) fail(err Error) Error {
	log.Logf("lms: verification failed in state %v: %v", v.state, err)
	v.wipe()
	v.state = stateFailed
	return err
}
