// buf manages sub-block disk objects, packed into disk blocks
package buf

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-simplefs/addr"
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/util"
)

// A Buf is a disk object (an inode or a whole disk block) loaded into memory
type Buf struct {
	Addr  addr.Addr
	Sz    uint64 // number of bytes
	Data  []byte
	dirty bool // has this object been written to?
}

func MkBuf(addr addr.Addr, sz uint64, data []byte) *Buf {
	if uint64(len(data)) != sz {
		panic("MkBuf: size mismatch")
	}
	b := &Buf{
		Addr:  addr,
		Sz:    sz,
		Data:  data,
		dirty: false,
	}
	return b
}

// Load the bytes of a disk block into a new buf, as specified by addr
func MkBufLoad(addr addr.Addr, sz uint64, blk disk.Block) *Buf {
	if addr.Off+sz > common.BlockSize {
		panic(fmt.Errorf("MkBufLoad: %v+%d crosses block boundary", addr, sz))
	}
	data := blk[addr.Off : addr.Off+sz]
	b := &Buf{
		Addr:  addr,
		Sz:    sz,
		Data:  data,
		dirty: false,
	}
	return b
}

// MkZeroBuf is a dirty, zero-filled buf for a whole block.
func MkZeroBuf(blkno common.Bnum) *Buf {
	b := MkBuf(addr.MkBlockAddr(blkno), common.BlockSize,
		make([]byte, common.BlockSize))
	b.SetDirty()
	return b
}

// ReadBuf reads the block containing addr and loads the object at addr.
func ReadBuf(d disk.Disk, addr addr.Addr, sz uint64) (*Buf, error) {
	blk, err := d.Read(addr.Blkno)
	if err != nil {
		return nil, err
	}
	return MkBufLoad(addr, sz, blk), nil
}

// Install the bytes from buf into blk.
func (buf *Buf) Install(blk disk.Block) {
	util.DPrintf(15, "%v: install\n", buf.Addr)
	copy(blk[buf.Addr.Off:buf.Addr.Off+buf.Sz], buf.Data)
}

func (buf *Buf) IsDirty() bool {
	return buf.dirty
}

func (buf *Buf) SetDirty() {
	buf.dirty = true
}

// WriteDirect writes buf to disk. A sub-block buf is installed into a fresh
// copy of its block so the other objects in that block are preserved.
func (buf *Buf) WriteDirect(d disk.Disk) error {
	var err error
	if buf.Sz == common.BlockSize {
		err = d.Write(buf.Addr.Blkno, buf.Data)
	} else {
		var blk disk.Block
		blk, err = d.Read(buf.Addr.Blkno)
		if err == nil {
			buf.Install(blk)
			err = d.Write(buf.Addr.Blkno, blk)
		}
	}
	if err != nil {
		return fmt.Errorf("writing %v: %w", buf.Addr, err)
	}
	buf.dirty = false
	return nil
}

// BnumGet decodes the block number stored at byte offset off.
func (buf *Buf) BnumGet(off uint64) common.Bnum {
	dec := marshal.NewDec(buf.Data[off : off+8])
	return common.Bnum(dec.GetInt())
}

// BnumPut stores v at byte offset off and marks buf dirty.
func (buf *Buf) BnumPut(off uint64, v common.Bnum) {
	enc := marshal.NewEnc(8)
	enc.PutInt(uint64(v))
	copy(buf.Data[off:off+8], enc.Finish())
	buf.SetDirty()
}
