package common

import (
	"github.com/tchajed/goose/machine/disk"
)

const (
	BlockSize uint64 = disk.BlockSize

	NDIRECT   uint64 = 5                 // direct pointers per inode
	INODESZ   uint64 = 8 * (NDIRECT + 3) // on-disk size
	INODEBLK  uint64 = BlockSize / INODESZ
	NPTRBLOCK uint64 = BlockSize / 8 // pointers per indirect block

	MAXFILEBLOCKS uint64 = NDIRECT + NPTRBLOCK
	MAXFILESIZE   uint64 = MAXFILEBLOCKS * BlockSize

	FSMAGIC uint64 = 0xf0f03410

	// one inode-table block per INODEFRAC blocks of disk, rounded up
	INODEFRAC uint64 = 10
)

type Inum uint64
type Bnum = uint64

const (
	NULLINUM Inum = 0
	NULLBNUM Bnum = 0
)
