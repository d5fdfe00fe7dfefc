// Go implementation of the verifier of the Leighton-Micali hash-based
// signature scheme (LMS) and its hierarchical variant (HSS) as described in
// RFC 8554 and NIST SP 800-208.
package lms

// Contains majority of the API

import (
	"crypto/subtle"
)

const (
	// Number of HSS levels accepted unless Options.MaxLevels says otherwise.
	DefaultMaxLevels = 2

	// Largest number of HSS levels allowed by RFC 8554.
	MaxLevelsLimit = 8
)

// Options for NewVerifier.  The zero value is valid.
type Options struct {
	// Hash engine to use.  Will use NewSoftwareEngine() if nil.
	Engine Engine

	// Maximum number of HSS levels to accept.  Will use DefaultMaxLevels
	// if set to 0.
	MaxLevels uint32
}

// Which kind of public key is passed to HashModeOf.
type PubAlgo uint8

const (
	PubAlgoLms PubAlgo = 1 // bare LMS public key
	PubAlgoHss PubAlgo = 2 // HSS public key: u32(levels) || LMS public key
)

// Creates a Verifier for signatures whose trust anchor uses the given hash
// mode.
func NewVerifier(mode HashMode, opts *Options) (*Verifier, Error) {
	if !mode.Valid() {
		return nil, errorf(ErrInvalidParam, "unknown hash mode %v", mode)
	}
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Engine == nil {
		o.Engine = NewSoftwareEngine()
	}
	if o.MaxLevels == 0 {
		o.MaxLevels = DefaultMaxLevels
	}
	if o.MaxLevels > MaxLevelsLimit {
		return nil, errorf(ErrInvalidParam, "MaxLevels %d exceeds %d",
			o.MaxLevels, MaxLevelsLimit)
	}
	return newVerifier(o.Engine, mode, o.MaxLevels), nil
}

// Returns the hash mode of the Verifier.
func (v *Verifier) HashMode() HashMode {
	return v.pad.mode
}

// Returns the number of levels of the signature being verified, or 0
// if HssInit did not succeed yet.
func (v *Verifier) Levels() uint32 {
	return v.levels
}

// Wipes the Verifier so it can be used for another verification.
func (v *Verifier) Reset() {
	v.wipe()
}

// Starts the verification of the HSS signature sig by the HSS public
// key pk.
//
// Checks the number of levels and verifies every level except the last,
// each of which signs the public key of the next level.  The message must
// then be passed to HashMessage and the verification completed with
// HssFinish.
func (v *Verifier) HssInit(sig, pk []byte) Error {
	if v.state != stateUninit {
		return v.fail(errorf(ErrInvalidParam, "HssInit in state %v", v.state))
	}

	if len(pk) < 4 {
		return v.fail(errorf(ErrLengthMismatch,
			"HSS public key of %d bytes", len(pk)))
	}
	levels := decodeUint32(pk)
	if levels < 1 || levels > v.maxLevels {
		return v.fail(errorf(ErrSignLevelUnsupported,
			"public key has %d levels; at most %d supported",
			levels, v.maxLevels))
	}
	if len(sig) < 4 {
		return v.fail(errorf(ErrLengthMismatch,
			"HSS signature of %d bytes", len(sig)))
	}
	nspk := decodeUint32(sig)
	if nspk >= v.maxLevels {
		return v.fail(errorf(ErrSignLevelUnsupported,
			"signature has %d levels; at most %d supported",
			uint64(nspk)+1, v.maxLevels))
	}
	if nspk+1 != levels {
		return v.fail(errorf(ErrSignLevelUnsupported,
			"signature has %d levels, public key %d", nspk+1, levels))
	}
	v.levels = levels
	v.state = stateLevelsValidated

	cur := pk[4:]
	off := uint32(4)
	sigLen := uint32(len(sig))

	var level uint32
	for level = 0; level+1 < levels; level++ {
		lp, op, err := v.pad.keyParams(cur)
		if err != nil {
			return v.fail(err)
		}
		lvlSigLen := lp.SignatureLen(op)
		if sigLen-off < lvlSigLen {
			return v.fail(errorf(ErrLengthMismatch,
				"signature of level %d truncated", level))
		}
		lvlSig := sig[off : off+lvlSigLen]
		off += lvlSigLen

		if sigLen-off < 8 {
			return v.fail(errorf(ErrLengthMismatch,
				"public key of level %d truncated", level+1))
		}
		childParams, err := LmsLookup(LmsType(decodeUint32(sig[off:])))
		if err != nil {
			return v.fail(err)
		}
		childLen := childParams.PublicKeyLen()
		if sigLen-off < childLen {
			return v.fail(errorf(ErrLengthMismatch,
				"public key of level %d truncated", level+1))
		}
		child := sig[off : off+childLen]
		off += childLen

		if err := v.pad.verifyLms(cur, lvlSig, child, nil); err != nil {
			return v.fail(err)
		}
		log.Logf("lms: level %d of %d verified", level, levels)
		cur = child
	}
	v.state = stateUpperLevelsVerified

	lp, op, err := v.pad.keyParams(cur)
	if err != nil {
		return v.fail(err)
	}
	keyLen := lp.PublicKeyLen()
	if uint32(len(cur)) != keyLen {
		return v.fail(errorf(ErrLengthMismatch,
			"%v public key is %d bytes, not %d", lp.Type, len(cur), keyLen))
	}
	copy(v.key[:keyLen], cur)
	if subtle.ConstantTimeCompare(v.key[:keyLen], cur) != 1 {
		return v.fail(errorf(ErrGlitchDetected,
			"copy of authenticated key differs"))
	}
	v.keyLen = keyLen

	n := op.N
	if sigLen-off < 8+n {
		return v.fail(errorf(ErrLengthMismatch,
			"signature of level %d truncated", levels-1))
	}
	v.q = decodeUint32(sig[off:])
	copy(v.c[:n], sig[off+8:off+8+n])
	v.n = n
	v.lastSigLen = lp.SignatureLen(op)
	v.consumed = off
	return nil
}

// Feeds the next chunk of the message into the message hash.  Set last on
// the final chunk, which may be empty.
func (v *Verifier) HashMessage(chunk []byte, last bool) Error {
	if v.state != stateUpperLevelsVerified {
		return v.fail(errorf(ErrInvalidParam,
			"HashMessage in state %v", v.state))
	}
	pad := &v.pad

	if !v.hashing {
		// H(I || u32(q) || u16(D_MESG) || C || message)
		addr := newAddress(v.key[8:8+idLen], v.q)
		addr.writeDomainInto(pad.node, D_MESG)
		if err := pad.engine.Start(pad.mode); err != nil {
			return v.fail(pad.engineFailed(err, "Start"))
		}
		if err := pad.engine.Update(pad.node[:nodeAddrLen]); err != nil {
			return v.fail(pad.engineFailed(err, "Update"))
		}
		if err := pad.engine.Update(v.c[:v.n]); err != nil {
			return v.fail(pad.engineFailed(err, "Update"))
		}
		v.hashing = true
	}

	if last {
		if err := pad.engine.LastUpdate(); err != nil {
			return v.fail(pad.engineFailed(err, "LastUpdate"))
		}
	}
	if err := pad.engine.Update(chunk); err != nil {
		return v.fail(pad.engineFailed(err, "Update"))
	}
	if !last {
		return nil
	}
	if err := pad.engine.Finish(v.digest[:v.n]); err != nil {
		return v.fail(pad.engineFailed(err, "Finish"))
	}
	v.hashing = false
	v.state = stateMessageHashed
	return nil
}

// Feeds p into the message hash.  Implements io.Writer.
//
// Call HashMessage(nil, true) after the last Write.
func (v *Verifier) Write(p []byte) (int, error) {
	if err := v.HashMessage(p, false); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Completes the verification started with HssInit by checking the last
// level of the signature against the message hash.  sig must be the same
// signature as passed to HssInit.
//
// Returns nil if and only if the signature is valid.
func (v *Verifier) HssFinish(sig []byte) Error {
	if v.state != stateMessageHashed {
		return v.fail(errorf(ErrInvalidParam,
			"HssFinish in state %v", v.state))
	}
	if uint32(len(sig)) < v.consumed {
		return v.fail(errorf(ErrLengthMismatch,
			"signature shorter than the part already verified"))
	}
	rest := sig[v.consumed:]
	if uint32(len(rest)) != v.lastSigLen {
		return v.fail(errorf(ErrLengthMismatch,
			"last level signature is %d bytes, not %d",
			len(rest), v.lastSigLen))
	}

	// The message was hashed with q and C read by HssInit.
	if decodeUint32(rest) != v.q {
		return v.fail(errorf(ErrInvalidParam,
			"leaf index changed since HssInit"))
	}
	if subtle.ConstantTimeCompare(rest[8:8+v.n], v.c[:v.n]) != 1 {
		return v.fail(errorf(ErrInvalidParam,
			"randomizer changed since HssInit"))
	}

	if err := v.pad.verifyLms(v.key[:v.keyLen], rest, nil,
		v.digest[:v.n]); err != nil {
		return v.fail(err)
	}

	log.Logf("lms: %d level signature authenticated", v.levels)
	v.wipe()
	v.state = stateAuthenticated
	return nil
}

// Checks whether sig is a valid HSS signature of msg by the HSS public
// key pk.  Resets the Verifier first.
func (v *Verifier) Verify(pk, sig, msg []byte) Error {
	v.Reset()
	if err := v.HssInit(sig, pk); err != nil {
		return err
	}
	if err := v.HashMessage(msg, true); err != nil {
		return err
	}
	return v.HssFinish(sig)
}

// Checks whether sig is a valid LMS signature of msg by the bare LMS
// public key pk (without the HSS levels field).  Resets the Verifier first.
func (v *Verifier) VerifyLms(pk, sig, msg []byte) Error {
	v.Reset()
	err := v.pad.verifyLms(pk, sig, msg, nil)
	v.wipe()
	if err != nil {
		return v.fail(err)
	}
	v.state = stateAuthenticated
	return nil
}

// Checks whether sig is a valid HSS signature of msg by the HSS public key
// pk, using the software hash engine.
func Verify(mode HashMode, pk, sig, msg []byte) Error {
	v, err := NewVerifier(mode, nil)
	if err != nil {
		return err
	}
	return v.Verify(pk, sig, msg)
}

// Checks whether sig is a valid LMS signature of msg by the LMS public key
// pk, using the software hash engine.
func VerifyLms(mode HashMode, pk, sig, msg []byte) Error {
	v, err := NewVerifier(mode, nil)
	if err != nil {
		return err
	}
	return v.VerifyLms(pk, sig, msg)
}

// Returns the hash mode used by the given LMS or HSS public key, so that
// the right Verifier can be set up before the signature is checked.
func HashModeOf(alg PubAlgo, pk []byte) (HashMode, Error) {
	switch alg {
	case PubAlgoLms:
	case PubAlgoHss:
		if len(pk) < 4 {
			return 0, errorf(ErrLengthMismatch,
				"HSS public key of %d bytes", len(pk))
		}
		pk = pk[4:]
	default:
		return 0, errorf(ErrInvalidParam, "unknown public key algorithm %d",
			alg)
	}
	if len(pk) < 4 {
		return 0, errorf(ErrLengthMismatch, "LMS public key of %d bytes",
			len(pk))
	}
	lp, err := LmsLookup(LmsType(decodeUint32(pk)))
	if err != nil {
		return 0, err
	}
	return lp.Hash, nil
}
