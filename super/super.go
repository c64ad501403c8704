// Package super encodes the superblock, which lives in block 0 and records
// the geometry of the file system.
//
// The disk layout is:
//
//	[ superblock | inode table (NInodeBlocks) | data blocks ... ]
//	  0            1                            DataStart()
package super

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-simplefs/addr"
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/util"
)

const SUPERBLK common.Bnum = 0

type FsSuper struct {
	Magic        uint64
	NBlocks      uint64
	NInodeBlocks uint64
	NInodes      uint64
	UUID         uuid.UUID
}

// MkFsSuper lays out a file system over nblocks blocks, reserving a tenth of
// them (rounded up) for the inode table.
func MkFsSuper(nblocks uint64) *FsSuper {
	ninodeblocks := util.RoundUp(nblocks, common.INODEFRAC)
	return &FsSuper{
		Magic:        common.FSMAGIC,
		NBlocks:      nblocks,
		NInodeBlocks: ninodeblocks,
		NInodes:      ninodeblocks * common.INODEBLK,
		UUID:         uuid.New(),
	}
}

func (fs *FsSuper) Encode() disk.Block {
	enc := marshal.NewEnc(common.BlockSize)
	enc.PutInt(fs.Magic)
	enc.PutInt(fs.NBlocks)
	enc.PutInt(fs.NInodeBlocks)
	enc.PutInt(fs.NInodes)
	enc.PutInt(binary.LittleEndian.Uint64(fs.UUID[0:8]))
	enc.PutInt(binary.LittleEndian.Uint64(fs.UUID[8:16]))
	return enc.Finish()
}

func Decode(blk disk.Block) *FsSuper {
	dec := marshal.NewDec(blk)
	fs := &FsSuper{
		Magic:        dec.GetInt(),
		NBlocks:      dec.GetInt(),
		NInodeBlocks: dec.GetInt(),
		NInodes:      dec.GetInt(),
	}
	binary.LittleEndian.PutUint64(fs.UUID[0:8], dec.GetInt())
	binary.LittleEndian.PutUint64(fs.UUID[8:16], dec.GetInt())
	return fs
}

// Valid reports whether the superblock describes a file system that fits its
// own block count.
func (fs *FsSuper) Valid() bool {
	return fs.Magic == common.FSMAGIC &&
		fs.NInodeBlocks > 0 &&
		fs.DataStart() <= fs.NBlocks &&
		fs.NInodes == fs.NInodeBlocks*common.INODEBLK
}

func (fs *FsSuper) InodeStart() common.Bnum {
	return SUPERBLK + 1
}

func (fs *FsSuper) DataStart() common.Bnum {
	return fs.InodeStart() + fs.NInodeBlocks
}

func (fs *FsSuper) MaxBnum() common.Bnum {
	return fs.NBlocks
}

func (fs *FsSuper) NInode() common.Inum {
	return common.Inum(fs.NInodes)
}

// ValidInum reports whether inum names an inode slot; inode numbers start
// at 1.
func (fs *FsSuper) ValidInum(inum common.Inum) bool {
	return inum != common.NULLINUM && inum <= fs.NInode()
}

// Inum2Addr is the location of inode inum in the inode table.
func (fs *FsSuper) Inum2Addr(inum common.Inum) addr.Addr {
	i := uint64(inum) - 1
	return addr.MkAddr(fs.InodeStart()+i/common.INODEBLK,
		(i%common.INODEBLK)*common.INODESZ)
}

// Addr2Inum is the inverse of Inum2Addr.
func (fs *FsSuper) Addr2Inum(a addr.Addr) common.Inum {
	blk := a.Blkno - fs.InodeStart()
	return common.Inum(blk*common.INODEBLK + a.Off/common.INODESZ + 1)
}

func (fs *FsSuper) String() string {
	return fmt.Sprintf("%d blocks, %d inode blocks, %d inodes",
		fs.NBlocks, fs.NInodeBlocks, fs.NInodes)
}
