package lms

import (
	"crypto/subtle"

	"github.com/templexxx/xor"
)

// Looks up the parameters of the LMS public key pk, which must be at least
// 8 bytes, and checks they fit the hash mode of the scratch pad.
func (pad *scratchPad) keyParams(pk []byte) (*Params, *OtsParams, Error) {
	if len(pk) < 8 {
		return nil, nil, errorf(ErrLengthMismatch,
			"LMS public key of %d bytes", len(pk))
	}
	lp, err := LmsLookup(LmsType(decodeUint32(pk)))
	if err != nil {
		return nil, nil, err
	}
	op, err := OtsLookup(OtsType(decodeUint32(pk[4:])))
	if err != nil {
		return nil, nil, err
	}
	if err := pad.checkHash(lp, op); err != nil {
		return nil, nil, err
	}
	return lp, op, nil
}

// Checks whether sig is a valid LMS signature by the LMS public key pk.
//
// If digest is nil, the message msg is hashed with the I, q and C from
// pk and sig first.  Otherwise digest is taken to be that message hash Q.
//
// All length and type checks are done before the first hash is computed.
func (pad *scratchPad) verifyLms(pk, sig, msg, digest []byte) Error {
	if len(pk) < 8 {
		return errorf(ErrLengthMismatch, "LMS public key of %d bytes", len(pk))
	}
	lmsType := LmsType(decodeUint32(pk))
	lp, err := LmsLookup(lmsType)
	if err != nil {
		return err
	}
	if uint32(len(pk)) != lp.PublicKeyLen() {
		return errorf(ErrLengthMismatch, "%v public key is %d bytes, not %d",
			lmsType, len(pk), lp.PublicKeyLen())
	}
	otsType := OtsType(decodeUint32(pk[4:]))

	if len(sig) < 8 {
		return errorf(ErrLengthMismatch, "LMS signature of %d bytes", len(sig))
	}
	q := decodeUint32(sig)
	if sigOtsType := OtsType(decodeUint32(sig[4:])); sigOtsType != otsType {
		return errorf(ErrTypeMismatch, "signature uses %v, key uses %v",
			sigOtsType, otsType)
	}
	op, err := OtsLookup(otsType)
	if err != nil {
		return err
	}
	if err := pad.checkHash(lp, op); err != nil {
		return err
	}

	otsEnd := 4 + op.SigLen
	if uint32(len(sig)) < otsEnd+4 {
		return errorf(ErrLengthMismatch, "LMS signature of %d bytes", len(sig))
	}
	if sigType := LmsType(decodeUint32(sig[otsEnd:])); sigType != lmsType {
		return errorf(ErrTypeMismatch, "signature is %v, key is %v",
			sigType, lmsType)
	}
	if uint64(q) >= lp.Leaves() {
		return errorf(ErrNodeOutOfRange, "leaf %d of %v", q, lmsType)
	}
	if uint32(len(sig)) != lp.SignatureLen(op) {
		return errorf(ErrLengthMismatch, "%v signature is %d bytes, not %d",
			lmsType, len(sig), lp.SignatureLen(op))
	}
	log.Logf("lms: verifying leaf %d of %v/%v", q, lmsType, otsType)

	n := op.N
	id := pk[8 : 8+idLen]
	root := pk[8+idLen:]
	otsSig := sig[4:otsEnd]
	path := sig[otsEnd+4:]
	addr := newAddress(id, q)

	if digest == nil {
		c := otsSig[4 : 4+n]
		addr.writeDomainInto(pad.node, D_MESG)
		if err := pad.hash(pad.digest[:n], pad.node[:nodeAddrLen], c,
			msg); err != nil {
			return err
		}
	} else {
		if uint32(len(digest)) != n {
			return errorf(ErrInvalidParam, "message hash of %d bytes",
				len(digest))
		}
		copy(pad.digest[:n], digest)
	}

	if err := pad.otsCandidateKey(op, otsSig, otsType, addr); err != nil {
		return err
	}

	// Leaf: H(I || u32(2^h + q) || u16(D_LEAF) || Kc)
	r := uint32(lp.Leaves()) + q
	tmp := pad.node[nodeAddrLen : nodeAddrLen+n]
	addr.setIndex(r)
	addr.writeDomainInto(pad.node, D_LEAF)
	if err := pad.hash(tmp, pad.node[:nodeAddrLen], pad.kc[:n]); err != nil {
		return err
	}

	// Hash up the tree: H(I || u32(r/2) || u16(D_INTR) || left || right)
	left := pad.node[nodeAddrLen : nodeAddrLen+n]
	right := pad.node[nodeAddrLen+n : nodeAddrLen+2*n]
	var i uint32
	for i = 0; r > 1; i++ {
		sibling := path[i*n : (i+1)*n]
		if r&1 == 1 {
			// we're on the right
			copy(right, tmp)
			copy(left, sibling)
		} else {
			copy(left, tmp)
			copy(right, sibling)
		}
		r >>= 1
		addr.setIndex(r)
		addr.writeDomainInto(pad.node, D_INTR)
		if err := pad.hash(tmp, pad.node[:nodeAddrLen+2*n]); err != nil {
			return err
		}
	}
	if i != lp.H {
		return errorf(ErrGlitchDetected, "walked %d of %d levels", i, lp.H)
	}

	return pad.compareRoots(tmp, root)
}

// Compares the computed root to the expected root along two independent
// paths: a constant-time compare and an XOR difference.  A disagreement
// between the two is reported as a glitch.
func (pad *scratchPad) compareRoots(computed, expected []byte) Error {
	if len(computed) != len(expected) {
		return errorf(ErrLengthMismatch, "root of %d bytes, expected %d",
			len(computed), len(expected))
	}
	ctEqual := subtle.ConstantTimeCompare(computed, expected) == 1

	diff := pad.diff[:len(expected)]
	xor.Bytes(diff, computed, expected)
	var acc byte
	var i int
	for i = 0; i < len(diff); i++ {
		acc |= diff[i]
	}
	if i != len(expected) {
		return errorf(ErrGlitchDetected, "root comparison stopped early")
	}

	return rootVerdict(ctEqual, acc == 0)
}

// Combines the outcomes of the two root comparisons.
func rootVerdict(ctEqual, xorEqual bool) Error {
	if ctEqual != xorEqual {
		return errorf(ErrGlitchDetected, "root comparisons disagree")
	}
	if !ctEqual {
		return errorf(ErrAuthenticationFailed, "root mismatch")
	}
	return nil
}
