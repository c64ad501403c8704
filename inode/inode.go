package inode

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-simplefs/addr"
	"github.com/mit-pdos/go-simplefs/buf"
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/super"
)

// Inode is the in-memory copy of an INODESZ-byte inode record:
//
//	valid | size | direct[NDIRECT] | indirect
//
// Every field is a little-endian uint64. A pointer of 0 means unallocated.
type Inode struct {
	Inum     common.Inum
	Valid    bool
	Size     uint64
	Direct   [common.NDIRECT]common.Bnum
	Indirect common.Bnum
}

func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	var valid uint64
	if ip.Valid {
		valid = 1
	}
	enc.PutInt(valid)
	enc.PutInt(ip.Size)
	enc.PutInts(ip.Direct[:])
	enc.PutInt(ip.Indirect)
	return enc.Finish()
}

func Decode(data []byte, inum common.Inum) *Inode {
	dec := marshal.NewDec(data)
	ip := &Inode{Inum: inum}
	ip.Valid = dec.GetInt() != 0
	ip.Size = dec.GetInt()
	copy(ip.Direct[:], dec.GetInts(common.NDIRECT))
	ip.Indirect = dec.GetInt()
	return ip
}

// Init turns ip into a valid, empty file.
func (ip *Inode) Init() {
	ip.Reset()
	ip.Valid = true
}

// Reset clears ip back to a free slot.
func (ip *Inode) Reset() {
	ip.Valid = false
	ip.Size = 0
	ip.Direct = [common.NDIRECT]common.Bnum{}
	ip.Indirect = common.NULLBNUM
}

func (ip *Inode) String() string {
	return fmt.Sprintf("inode %d valid %v size %d direct %v indirect %d",
		ip.Inum, ip.Valid, ip.Size, ip.Direct, ip.Indirect)
}

// Ref is an inode decoded from its home in the inode table: the inode
// table block Blkno, at slot Slot within it.
type Ref struct {
	*Inode
	Blkno common.Bnum
	Slot  uint64
	buf   *buf.Buf
}

func mkRef(fs *super.FsSuper, b *buf.Buf) *Ref {
	inum := fs.Addr2Inum(b.Addr)
	return &Ref{
		Inode: Decode(b.Data, inum),
		Blkno: b.Addr.Blkno,
		Slot:  b.Addr.Off / common.INODESZ,
		buf:   b,
	}
}

// Load reads inode inum from d.
func Load(d disk.Disk, fs *super.FsSuper, inum common.Inum) (*Ref, error) {
	if !fs.ValidInum(inum) {
		panic(fmt.Errorf("inode.Load: bad inum %d", inum))
	}
	b, err := buf.ReadBuf(d, fs.Inum2Addr(inum), common.INODESZ)
	if err != nil {
		return nil, fmt.Errorf("loading inode %d: %w", inum, err)
	}
	return mkRef(fs, b), nil
}

// LoadBlock reads inode table block blkno and decodes all of its slots, in
// slot order.
func LoadBlock(d disk.Disk, fs *super.FsSuper, blkno common.Bnum) ([]*Ref, error) {
	blk, err := d.Read(blkno)
	if err != nil {
		return nil, fmt.Errorf("loading inode block %d: %w", blkno, err)
	}
	refs := make([]*Ref, 0, common.INODEBLK)
	for slot := uint64(0); slot < common.INODEBLK; slot++ {
		a := addr.MkAddr(blkno, slot*common.INODESZ)
		refs = append(refs, mkRef(fs, buf.MkBufLoad(a, common.INODESZ, blk)))
	}
	return refs, nil
}

// Store writes the inode back to its slot, leaving the rest of the block
// alone.
func (r *Ref) Store(d disk.Disk) error {
	copy(r.buf.Data, r.Encode())
	r.buf.SetDirty()
	if err := r.buf.WriteDirect(d); err != nil {
		return fmt.Errorf("storing inode %d: %w", r.Inum, err)
	}
	return nil
}
