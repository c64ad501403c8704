package inode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/super"
)

func TestEncodeSize(t *testing.T) {
	ip := &Inode{Inum: 1}
	assert.Equal(t, int(common.INODESZ), len(ip.Encode()))
	assert.Equal(t, uint64(64), common.INODEBLK)
}

func TestEncodeDecode(t *testing.T) {
	ip := &Inode{
		Inum:     7,
		Valid:    true,
		Size:     123456,
		Direct:   [common.NDIRECT]common.Bnum{10, 11, 0, 13, 14},
		Indirect: 99,
	}
	ip2 := Decode(ip.Encode(), 7)
	assert.Equal(t, ip, ip2)
}

func TestInitReset(t *testing.T) {
	ip := &Inode{Inum: 3, Size: 5, Indirect: 9}
	ip.Direct[2] = 4
	ip.Init()
	assert.True(t, ip.Valid)
	assert.Equal(t, uint64(0), ip.Size)
	assert.Equal(t, [common.NDIRECT]common.Bnum{}, ip.Direct)
	assert.Equal(t, common.NULLBNUM, ip.Indirect)

	ip.Reset()
	assert.False(t, ip.Valid)
	assert.Equal(t, common.Inum(3), ip.Inum, "reset keeps the inode number")
}

func TestStoreLoad(t *testing.T) {
	assert := assert.New(t)
	d := disk.NewMemDisk(20)
	fs := super.MkFsSuper(20)

	for _, inum := range []common.Inum{1, 2, 64, 65, fs.NInode()} {
		r, err := Load(d, fs, inum)
		require.NoError(t, err)
		assert.False(r.Valid)
		r.Init()
		r.Size = uint64(inum) * 10
		r.Direct[0] = common.Bnum(inum)
		require.NoError(t, r.Store(d))
	}

	r, err := Load(d, fs, 65)
	require.NoError(t, err)
	assert.Equal(common.Bnum(2), r.Blkno)
	assert.Equal(uint64(0), r.Slot)
	assert.True(r.Valid)
	assert.Equal(uint64(650), r.Size)

	refs, err := LoadBlock(d, fs, fs.InodeStart())
	require.NoError(t, err)
	assert.Len(refs, int(common.INODEBLK))
	for i, r := range refs {
		assert.Equal(common.Inum(i+1), r.Inum)
		assert.Equal(uint64(i), r.Slot)
		switch r.Inum {
		case 1, 2, 64:
			assert.True(r.Valid, "inode %d", r.Inum)
			assert.Equal(common.Bnum(r.Inum), r.Direct[0])
		default:
			assert.False(r.Valid, "inode %d", r.Inum)
		}
	}
}

func TestStoreFromBlockPreservesSiblings(t *testing.T) {
	d := disk.NewMemDisk(20)
	fs := super.MkFsSuper(20)

	refs, err := LoadBlock(d, fs, fs.InodeStart())
	require.NoError(t, err)
	refs[0].Init()
	require.NoError(t, refs[0].Store(d))
	refs[1].Init()
	require.NoError(t, refs[1].Store(d))

	r, err := Load(d, fs, 1)
	require.NoError(t, err)
	assert.True(t, r.Valid, "storing a sibling should not clobber inode 1")
}

func TestLoadBadInum(t *testing.T) {
	d := disk.NewMemDisk(20)
	fs := super.MkFsSuper(20)
	assert.Panics(t, func() { Load(d, fs, common.NULLINUM) })
}
