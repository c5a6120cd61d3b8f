package store

// MarshalMsg/UnmarshalMsg for ArtifactRecord, hand-authored in the same
// array-encoded shape github.com/tinylib/msgp's code generator produces
// for a codegen annotation (`//msgp:tuple ArtifactRecord`) -- this repo's
// build does not invoke the msgp tool, so the generated pair lives here by
// hand rather than in a *_gen.go the tool would normally own (see
// DESIGN.md). Field order is fixed and must not change without bumping
// every persisted row.

import "github.com/tinylib/msgp/msgp"

// MarshalMsg implements msgp.Marshaler.
func (z *ArtifactRecord) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendArrayHeader(o, 6)
	o = msgp.AppendString(o, z.ID)
	o = msgp.AppendInt64(o, z.ProductID)
	o = msgp.AppendString(o, z.FileHash)
	o = msgp.AppendTime(o, z.DownloadTime)
	o = msgp.AppendBool(o, z.Active)
	o = msgp.AppendString(o, z.StorageLocation)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler.
func (z *ArtifactRecord) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return bts, err
	}
	if sz != 6 {
		return bts, msgp.ArrayError{Wanted: 6, Got: sz}
	}
	if z.ID, bts, err = msgp.ReadStringBytes(bts); err != nil {
		return
	}
	if z.ProductID, bts, err = msgp.ReadInt64Bytes(bts); err != nil {
		return
	}
	if z.FileHash, bts, err = msgp.ReadStringBytes(bts); err != nil {
		return
	}
	if z.DownloadTime, bts, err = msgp.ReadTimeBytes(bts); err != nil {
		return
	}
	if z.Active, bts, err = msgp.ReadBoolBytes(bts); err != nil {
		return
	}
	if z.StorageLocation, bts, err = msgp.ReadStringBytes(bts); err != nil {
		return
	}
	o = bts
	return
}

// Msgsize returns an upper bound on the encoded size, the same
// cheap-to-compute estimate the codegen tool emits (used to presize the
// buffer in MarshalMsg).
func (z *ArtifactRecord) Msgsize() int {
	return 1 + msgp.StringPrefixSize + len(z.ID) +
		msgp.Int64Size +
		msgp.StringPrefixSize + len(z.FileHash) +
		msgp.TimeSize +
		msgp.BoolSize +
		msgp.StringPrefixSize + len(z.StorageLocation)
}
