package simplefs

import (
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/inode"
	"github.com/mit-pdos/go-simplefs/util"
)

// Read copies up to len(p) bytes of file inum, starting at byte off, into p
// and returns the number of bytes copied. Reading at or past the end of the
// file returns 0. A block that was never written ends the read early.
func (fs *FileSys) Read(inum common.Inum, p []byte, off uint64) (uint64, error) {
	var n uint64
	err := fs.withInode(inum, func(r *inode.Ref) error {
		var err error
		n, err = fs.read(r.Inode, p, off)
		return err
	})
	return n, err
}

func (fs *FileSys) read(ip *inode.Inode, p []byte, off uint64) (uint64, error) {
	// a corrupt size must not send lookup past the last file block
	size := util.Min(ip.Size, common.MAXFILESIZE)
	if off >= size {
		return 0, nil
	}
	count := util.Min(uint64(len(p)), size-off)
	m := mkBmap(fs.d, fs.super, nil, ip)
	var n uint64
	for n < count {
		pos := off + n
		bn, err := m.lookup(pos / common.BlockSize)
		if err != nil {
			return n, err
		}
		if bn == common.NULLBNUM {
			util.DPrintf(5, "inode %d: hole at %d\n", ip.Inum, pos)
			break
		}
		blk, err := fs.d.Read(bn)
		if err != nil {
			return n, err
		}
		boff := pos % common.BlockSize
		c := util.Min(common.BlockSize-boff, count-n)
		copy(p[n:n+c], blk[boff:boff+c])
		n += c
	}
	util.DPrintf(10, "Read: inode %d off %d: %d bytes\n", ip.Inum, off, n)
	return n, nil
}

// Write writes p to file inum at byte off, allocating blocks as needed and
// growing the file if the write ends past its size. It returns the number of
// bytes written; a short count comes with ErrNoSpace if the disk filled up,
// or ErrFileTooBig if p reaches past the maximum file size.
func (fs *FileSys) Write(inum common.Inum, p []byte, off uint64) (uint64, error) {
	var n uint64
	err := fs.withInode(inum, func(r *inode.Ref) error {
		var err error
		n, err = fs.write(r, p, off)
		return err
	})
	return n, err
}

func (fs *FileSys) write(r *inode.Ref, p []byte, off uint64) (uint64, error) {
	var count uint64
	if off < common.MAXFILESIZE {
		count = util.Min(uint64(len(p)), common.MAXFILESIZE-off)
	}
	m := mkBmap(fs.d, fs.super, fs.alloc, r.Inode)
	var n uint64
	var err error
	for n < count {
		pos := off + n
		var bn common.Bnum
		var fresh bool
		bn, fresh, err = m.lookupAlloc(pos / common.BlockSize)
		if err != nil {
			break
		}
		if bn == common.NULLBNUM {
			util.DPrintf(1, "Write: inode %d: disk full after %d bytes\n",
				r.Inum, n)
			err = ErrNoSpace
			break
		}
		boff := pos % common.BlockSize
		c := util.Min(common.BlockSize-boff, count-n)
		var blk disk.Block
		if fresh || c == common.BlockSize {
			blk = make(disk.Block, common.BlockSize)
		} else {
			blk, err = fs.d.Read(bn)
			if err != nil {
				break
			}
		}
		copy(blk[boff:boff+c], p[n:n+c])
		if err = fs.d.Write(bn, blk); err != nil {
			break
		}
		n += c
	}

	if ferr := m.flush(); ferr != nil && err == nil {
		err = ferr
	}
	if n > 0 && off+n > r.Size {
		r.Size = off + n
		m.dirty = true
	}
	if m.dirty {
		if serr := r.Store(fs.d); serr != nil && err == nil {
			err = serr
		}
	}
	if err == nil && count < uint64(len(p)) {
		err = ErrFileTooBig
	}
	util.DPrintf(10, "Write: inode %d off %d: %d of %d bytes\n",
		r.Inum, off, n, len(p))
	return n, err
}
